package generators

import (
	"github.com/reusee/taicell/configs"
	"github.com/reusee/taicell/vars"
)

type NewOpenRouter func(args GeneratorArgs) *OpenAI

func (Module) NewOpenRouter(
	newOpenAI NewOpenAI,
	apiKey OpenRouterAPIKey,
	loader configs.Loader,
) NewOpenRouter {
	return func(args GeneratorArgs) *OpenAI {
		if endpoint := configs.First[string](loader, "openrouter_endpoint"); endpoint != "" {
			args.BaseURL = endpoint
		} else {
			args.BaseURL = "https://openrouter.ai/api/v1"
		}
		args.IsOpenRouter = true
		return newOpenAI(
			args,
			vars.FirstNonZero(
				args.APIKey,
				string(apiKey),
			),
		)
	}
}

type NewDeepseek func(args GeneratorArgs) *OpenAI

func (Module) NewDeepseek(
	apiKey DeepseekAPIKey,
	newOpenAI NewOpenAI,
) NewDeepseek {
	return func(args GeneratorArgs) *OpenAI {
		args.BaseURL = "https://api.deepseek.com"
		return newOpenAI(
			args,
			vars.FirstNonZero(
				args.APIKey,
				string(apiKey),
			),
		)
	}
}

// NewGemini talks to the OpenAI compatible endpoint of the Gemini API.
type NewGemini func(args GeneratorArgs) *OpenAI

func (Module) NewGemini(
	apiKey GoogleAPIKey,
	newOpenAI NewOpenAI,
) NewGemini {
	return func(args GeneratorArgs) *OpenAI {
		args.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
		return newOpenAI(
			args,
			vars.FirstNonZero(
				args.APIKey,
				string(apiKey),
			),
		)
	}
}
