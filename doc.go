/*
Package courier is a conversational front-end that routes each chat message to
exactly one backend capability and lets a generative model phrase the answer.

A message is classified by an ordered list of keyword rules (filesystem, time,
url, chat; first match wins), at most one tool is called through a uniform
request/result contract, the tool output is folded together with the original
question into a single prompt, and the model is asked once. Tool and model
failures are turned into answer text instead of errors.

# Architecture

The core is hexagonal: pkg/domain holds the types, pkg/ports the interfaces,
and the adapters (HTTP, MCP, Redis, file and memory stores) plug in from the
outside.

  - pkg/urls: URL extraction.
  - pkg/router: the ordered intent rules.
  - pkg/gateway: fetch, time and filesystem clients with endpoint fallback.
  - pkg/prompt: prompt composition.
  - pkg/completion: the OpenAI-compatible model client.
  - pkg/session: per-session locking around transcript persistence.

# Usage

	reg := registry.New([]ports.Tool{
		gateway.NewFetchClient("http://127.0.0.1:8000"),
		gateway.NewTimeClient("http://127.0.0.1:8000", "America/New_York"),
		gateway.NewFilesystemClient("http://127.0.0.1:8000"),
	})
	model := completion.New(completion.Config{APIKey: os.Getenv("COURIER_API_KEY")})

	eng, err := courier.New(reg, model)
	if err != nil {
		log.Fatal(err)
	}

	reply, err := eng.Chat(ctx, "session-1", "what time is it?")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(reply.Text)
*/
package courier
