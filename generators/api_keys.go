package generators

import (
	"os"

	"github.com/reusee/taicell/configs"
	"github.com/reusee/taicell/vars"
)

type (
	OpenAIAPIKey     string
	GoogleAPIKey     string
	OpenRouterAPIKey string
	DeepseekAPIKey   string
)

func (OpenAIAPIKey) ConfigExpr() string {
	return "openai_api_key"
}

func (GoogleAPIKey) ConfigExpr() string {
	return "google_api_key"
}

func (OpenRouterAPIKey) ConfigExpr() string {
	return "open_router_api_key"
}

func (DeepseekAPIKey) ConfigExpr() string {
	return "deepseek_api_key"
}

var (
	_ configs.Configurable = OpenAIAPIKey("")
	_ configs.Configurable = GoogleAPIKey("")
	_ configs.Configurable = OpenRouterAPIKey("")
	_ configs.Configurable = DeepseekAPIKey("")
)

func (Module) OpenAIAPIKey(
	loader configs.Loader,
) OpenAIAPIKey {
	return vars.FirstNonZero(
		configs.Lookup[OpenAIAPIKey](loader),
		OpenAIAPIKey(os.Getenv("OPENAI_API_KEY")),
	)
}

func (Module) GoogleAPIKey(
	loader configs.Loader,
) GoogleAPIKey {
	return vars.FirstNonZero(
		configs.Lookup[GoogleAPIKey](loader, "gemini_api_key"),
		GoogleAPIKey(os.Getenv("GOOGLE_API_KEY")),
		GoogleAPIKey(os.Getenv("GEMINI_API_KEY")),
	)
}

func (Module) OpenRouterAPIKey(
	loader configs.Loader,
) OpenRouterAPIKey {
	return vars.FirstNonZero(
		configs.Lookup[OpenRouterAPIKey](loader, "openrouter_api_key"),
		OpenRouterAPIKey(os.Getenv("OPEN_ROUTER_API_KEY")),
		OpenRouterAPIKey(os.Getenv("OPENROUTER_API_KEY")),
	)
}

func (Module) DeepseekAPIKey(
	loader configs.Loader,
) DeepseekAPIKey {
	return vars.FirstNonZero(
		configs.Lookup[DeepseekAPIKey](loader),
		DeepseekAPIKey(os.Getenv("DEEPSEEK_API_KEY")),
	)
}
