// Package litellm is a client for a LiteLLM-style LLM gateway.
//
// A Client sends chat completions, embeddings, image generations and model
// listings to one gateway. Completions can be buffered or streamed, and can
// run Go tools the model asks for: the client executes every requested call,
// appends the results to the conversation and asks again until the model
// answers without tool calls.
//
//	client, err := litellm.New(litellm.Config{BaseURL: "http://localhost:8000"})
//	if err != nil {
//		return err
//	}
//	answer, err := client.Completion(ctx, litellm.CompletionRequest{
//		Messages: []litellm.Message{litellm.UserMessage("2+2?")},
//	})
//
// Tool rounds are unbounded unless Config.MaxToolRounds or
// CompletionRequest.MaxToolRounds is set. Tools whose output never lets the
// model reach an answer keep the loop running; bounding it is up to the
// caller.
package litellm
