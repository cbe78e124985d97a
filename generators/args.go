package generators

type GeneratorArgs struct {
	BaseURL           string   `json:"base_url"`
	APIKey            string   `json:"api_key"`
	Model             string   `json:"model"`
	MaxGenerateTokens *int     `json:"max_generate_tokens"`
	Temperature       *float32 `json:"temperature"`
	IsOpenRouter      bool     `json:"is_open_router"`
}

var (
	K = 1 << 10
	M = 1 << 20
)
