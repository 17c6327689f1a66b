package jarvis_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/jarvis"
)

// ExampleAssistant_Resume shows a run that asks a clarifying question before acting.
func ExampleAssistant_Resume() {
	a, err := jarvis.New()
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	out, err := a.Run(ctx, "Email alice@example.com about the launch")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out.Reply())

	out, err = a.Resume(ctx, out.Token, "We ship on Friday")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out.Reply())

	// Output:
	// What should the email say?
	// Here's what I did:
	// - Email: Email to alice@example.com sent "the launch"
}

// ExampleAssistant_Chat shows the conversation facade keeping the pending run.
func ExampleAssistant_Chat() {
	a, err := jarvis.New()
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	for _, text := range []string{
		"Search the web for Go release notes",
		"Find the phone number for Ada Lovelace",
	} {
		out, err := a.Chat(ctx, "demo", text)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(out.Reply())
	}

	// Output:
	// Here's what I did:
	// - Web search: Searched the web for "Go release notes"
	// Here's what I did:
	// - Contact: Found contact details for Ada Lovelace
}
