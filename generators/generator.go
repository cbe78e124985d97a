package generators

import (
	"context"
	"fmt"
	"strings"

	"github.com/reusee/taicell/vars"
)

type Generator interface {
	Args() GeneratorArgs
	Generate(ctx context.Context, prompts Prompts) (string, error)
}

type GetGenerator func(name string) (Generator, error)

func (Module) GetGenerator(
	newOpenAI NewOpenAI,
	newOpenRouter NewOpenRouter,
	newDeepseek NewDeepseek,
	newGemini NewGemini,
	apiKey OpenAIAPIKey,
	getSpecs GetGeneratorSpecs,
) GetGenerator {
	return func(name string) (Generator, error) {

		// user-defined first
		specs, err := getSpecs()
		if err != nil {
			return nil, err
		}
		for _, spec := range specs {
			if spec.Name != name {
				continue
			}
			switch strings.ToLower(spec.Type) {
			case "open-router", "open_router", "openrouter":
				return newOpenRouter(spec.GeneratorArgs), nil
			case "deepseek":
				return newDeepseek(spec.GeneratorArgs), nil
			case "gemini":
				return newGemini(spec.GeneratorArgs), nil
			case "openai", "open-ai", "open_ai":
				if spec.BaseURL == "" {
					spec.BaseURL = "https://api.openai.com/v1"
				}
				return newOpenAI(spec.GeneratorArgs, vars.FirstNonZero(spec.APIKey, string(apiKey))), nil
			case "ollama":
				spec.BaseURL = "http://127.0.0.1:11434/v1"
				return newOpenAI(spec.GeneratorArgs, ""), nil
			default:
				return nil, fmt.Errorf("unknown generator type: %q", spec.Type)
			}
		}

		// ollama
		provider, modelName, ok := strings.Cut(name, ":")
		if ok && provider == "ollama" {
			return newOpenAI(GeneratorArgs{
				BaseURL: "http://127.0.0.1:11434/v1",
				Model:   modelName,
			}, ""), nil
		}

		// built-ins
		switch name {

		case "flash", "gemini-flash":
			return newGemini(GeneratorArgs{
				Model:             "gemini-flash-latest",
				MaxGenerateTokens: vars.PtrTo(32 * K),
				Temperature:       vars.PtrTo(float32(0.1)),
			}), nil

		case "pro", "gemini-pro":
			return newGemini(GeneratorArgs{
				Model:             "gemini-pro-latest",
				MaxGenerateTokens: vars.PtrTo(32 * K),
				Temperature:       vars.PtrTo(float32(0.1)),
			}), nil

		case "deepseek", "deepseek-chat":
			return newDeepseek(GeneratorArgs{
				Model:       "deepseek-chat",
				Temperature: vars.PtrTo(float32(0.1)),
			}), nil

		}

		return nil, fmt.Errorf("invalid model: %s", name)
	}
}
