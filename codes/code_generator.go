package codes

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/reusee/taicell/generators"
	"github.com/reusee/taicell/kbs"
	"github.com/reusee/taicell/logs"
)

// CodeGenerator turns plan steps into code with a chat model.
type CodeGenerator struct {
	getPlan GetPlanGenerator
	getCode GetCodeGenerator
	logger  logs.Logger
}

func NewCodeGenerator(getPlan GetPlanGenerator, getCode GetCodeGenerator, logger logs.Logger) *CodeGenerator {
	return &CodeGenerator{
		getPlan: getPlan,
		getCode: getCode,
		logger:  logger,
	}
}

func (Module) CodeGenerator(
	getPlan GetPlanGenerator,
	getCode GetCodeGenerator,
	logger logs.Logger,
) *CodeGenerator {
	return NewCodeGenerator(getPlan, getCode, logger)
}

func (c *CodeGenerator) complete(ctx context.Context, get func() (generators.Generator, error), user string) (string, error) {
	generator, err := get()
	if err != nil {
		return "", err
	}
	text, err := generator.Generate(ctx, generators.NewPrompts(systemPrompt, user))
	if err != nil {
		return "", fmt.Errorf("%s: %w", generator.Args().Model, err)
	}
	return text, nil
}

func (c *CodeGenerator) Plan(ctx context.Context, objective string, metadata string) (string, error) {
	text, err := c.complete(ctx, c.getPlan, planPrompt(objective, metadata))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

type selection struct {
	Functions []string `json:"functions"`
	// key used by older prompts
	Chosen []string `json:"funcoes_escolhidas"`
}

// SelectFunctions asks which knowledge base entries help with step. Titles the model invents are dropped.
func (c *CodeGenerator) SelectFunctions(ctx context.Context, step string, summaries []kbs.Summary) ([]string, error) {
	if len(summaries) == 0 {
		return nil, nil
	}
	text, err := c.complete(ctx, c.getPlan, selectPrompt(step, summaries))
	if err != nil {
		return nil, err
	}
	var sel selection
	if err := json.Unmarshal([]byte(extractJSON(text)), &sel); err != nil {
		c.logger.WarnContext(ctx, "bad function selection", "text", text, "error", err)
		return nil, nil
	}
	var ret []string
	for _, title := range append(sel.Functions, sel.Chosen...) {
		if slices.Contains(ret, title) {
			continue
		}
		if !slices.ContainsFunc(summaries, func(s kbs.Summary) bool {
			return s.Title == title
		}) {
			continue
		}
		ret = append(ret, title)
	}
	return ret, nil
}

func (c *CodeGenerator) Generate(ctx context.Context, req Request) (string, error) {
	text, err := c.complete(ctx, c.getCode, generatePrompt(req))
	if err != nil {
		return "", err
	}
	return ExtractCode(text), nil
}

func (c *CodeGenerator) Fix(ctx context.Context, req Request) (string, error) {
	text, err := c.complete(ctx, c.getCode, fixPrompt(req))
	if err != nil {
		return "", err
	}
	return ExtractCode(text), nil
}
