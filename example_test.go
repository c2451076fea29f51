package litellm_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/user/litellm"
	lltest "github.com/user/litellm/internal/testing"
)

// Example_completion sends a buffered chat completion
func Example_completion() {
	server := httptest.NewServer(lltest.JSONHandler(lltest.ChatResponse("4")))
	defer server.Close()

	client, err := litellm.New(litellm.Config{BaseURL: server.URL})
	if err != nil {
		fmt.Println(err)
		return
	}

	answer, err := client.Completion(context.Background(), litellm.CompletionRequest{
		Messages: []litellm.Message{litellm.UserMessage("2+2?")},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(answer)
	// Output: 4
}

// Example_streaming prints text deltas as they arrive
func Example_streaming() {
	server := httptest.NewServer(lltest.TextStreamHandler("Hello from the gateway"))
	defer server.Close()

	client, _ := litellm.New(litellm.Config{BaseURL: server.URL})

	_, err := client.Completion(context.Background(), litellm.CompletionRequest{
		Messages: []litellm.Message{litellm.UserMessage("hi")},
		Stream:   true,
		OnDelta: func(delta string) error {
			fmt.Printf("[%s]", delta)
			return nil
		},
	})
	fmt.Println()
	fmt.Println(err)
	// Output:
	// [Hello ][from ][the ][gateway]
	// <nil>
}

// Example_tools lets the model call a Go function
func Example_tools() {
	responses := []string{
		lltest.ToolCallResponse(lltest.ToolCall{ID: "call_1", Name: "Weather__current", Arguments: `{"city":"Lisbon"}`}),
		lltest.ChatResponse("It is sunny in Lisbon."),
	}
	n := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lltest.JSONHandler(responses[n])(w, r)
		n++
	}))
	defer server.Close()

	weather := litellm.Namespace("WeatherTool", litellm.NewFunc(
		"current", "Current weather for a city",
		litellm.MustBuildSchema(litellm.Property{Name: "city", Type: "string", Required: true}),
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			fmt.Println("tool called for", args["city"])
			return map[string]string{"sky": "clear"}, nil
		},
	))

	client, _ := litellm.New(litellm.Config{BaseURL: server.URL})
	res, err := client.CompletionWithResult(context.Background(), litellm.CompletionRequest{
		Messages: []litellm.Message{litellm.UserMessage("Weather in Lisbon?")},
		Tools:    weather,
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(res.Text, res.Rounds)
	// Output:
	// tool called for Lisbon
	// It is sunny in Lisbon. 1
}

// Example_errors shows how gateway failures are classified
func Example_errors() {
	server := httptest.NewServer(lltest.RateLimitHandler(`{"error":{"message":"slow down","type":"rate_limit_error"}}`))
	defer server.Close()

	client, _ := litellm.New(litellm.Config{BaseURL: server.URL})
	_, err := client.Models(context.Background())

	fmt.Println(litellm.IsRateLimitError(err), litellm.IsAPIError(err), litellm.StatusCode(err))
	// Output: true true 429
}
