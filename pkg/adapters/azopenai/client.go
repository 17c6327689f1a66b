// Package azopenai implements the information extractor on top of Azure OpenAI chat completions.
package azopenai

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/aretw0/jarvis/pkg/domain"
)

// Completer sends a system prompt, prior turns and the latest user text to a chat model
// and returns the raw completion.
type Completer interface {
	Complete(ctx context.Context, system string, history []domain.Message, prompt string) (string, error)
}

// Client is a Completer backed by an Azure OpenAI deployment.
type Client struct {
	client       *azopenai.Client
	deploymentID string
	temperature  float32
}

// NewClient creates a Client using key credentials.
// The deploymentID is used for all subsequent calls.
func NewClient(endpoint, apiKey, deploymentID string) (*Client, error) {
	keyCredential := azcore.NewKeyCredential(apiKey)
	client, err := azopenai.NewClientWithKeyCredential(endpoint, keyCredential, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating Azure OpenAI client: %w", err)
	}
	return &Client{
		client:       client,
		deploymentID: deploymentID,
		temperature:  0.3,
	}, nil
}

// Complete implements Completer.
func (c *Client) Complete(ctx context.Context, system string, history []domain.Message, prompt string) (string, error) {
	messages := make([]azopenai.ChatRequestMessageClassification, 0, len(history)+2)
	messages = append(messages, &azopenai.ChatRequestSystemMessage{
		Content: azopenai.NewChatRequestSystemMessageContent(system),
	})
	for _, m := range history {
		switch m.Role {
		case domain.RoleAssistant:
			messages = append(messages, &azopenai.ChatRequestAssistantMessage{
				Content: azopenai.NewChatRequestAssistantMessageContent(m.Content),
			})
		default:
			messages = append(messages, &azopenai.ChatRequestUserMessage{
				Content: azopenai.NewChatRequestUserMessageContent(m.Content),
			})
		}
	}
	messages = append(messages, &azopenai.ChatRequestUserMessage{
		Content: azopenai.NewChatRequestUserMessageContent(prompt),
	})

	resp, err := c.client.GetChatCompletions(
		ctx,
		azopenai.ChatCompletionsOptions{
			DeploymentName: to.Ptr(c.deploymentID),
			Messages:       messages,
			Temperature:    to.Ptr(c.temperature),
		},
		nil,
	)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) > 0 && resp.Choices[0].Message.Content != nil {
		return *resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("no completion received from LLM")
}
