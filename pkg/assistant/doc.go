/*
Package assistant wires the Jarvis personal-assistant workflow onto the graph engine.

The workflow gathers intents and entities from the user's text, suspends to ask for
anything that is missing, fans out to the selected action handlers, and aggregates
their results into a single reply:

	gather_info ──▶ get_user_input (suspends, resumes at gather_info)
	     │ ├──────▶ stop (terminal)
	     │ └──────▶ email | calendar | contact | web_search | content ──▶ aggregate_results (terminal)

Every external service is passed in through Capabilities; the package holds no
process-wide state.
*/
package assistant
