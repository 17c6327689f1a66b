// Command jarvis runs the personal assistant from the terminal, over HTTP or as an MCP server.
package main

func main() {
	Execute()
}
