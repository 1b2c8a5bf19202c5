package agent

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/etnz/fins"
	"github.com/etnz/fins/docs"
	"github.com/etnz/fins/dsl"
)

// Interpreter runs fins commands.
type Interpreter interface {
	Interpret(ctx context.Context, text string) fins.Output
}

// FinsTool is the function running a fins command on interp.
func FinsTool(interp Interpreter) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "fins",
			Description: `Runs a fins command and returns its output as JSON.
The output has a "type" (basket, number, text, boolean, void or error), the "data" and the "log" of the executed stages.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"command": {
						Type:        genai.TypeString,
						Description: "The fins command, for instance: AAPL MSFT -> pe -> sort pe desc",
					},
				},
				Required: []string{"command"},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "The JSON output of the command.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			command, err := stringArg(args, "command")
			if err != nil {
				return failure(id, "fins", err)
			}
			if _, err := dsl.Parse(command); err != nil {
				return failure(id, "fins", err)
			}
			out, err := json.Marshal(interp.Interpret(ctx, command))
			if err != nil {
				return failure(id, "fins", err)
			}
			return &genai.FunctionResponse{ID: id, Name: "fins", Response: map[string]any{"output": string(out)}}
		},
	}
}

// NewAnalyst creates the expert writing and running fins commands.
func NewAnalyst(model string, interp Interpreter, log zerolog.Logger) *Expert {
	lib := []Function{FinsTool(interp)}
	manual, _ := docs.Topic("*")
	return &Expert{
		Name: "Analyst",
		Description: `This is the Analyst. It builds and inspects baskets of stocks and funds:
it can screen symbols on fundamentals, compute returns and indicators, spread funds into their holdings and store lists.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{FunctionDeclarations: NewDeclaration(lib)}},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
You are a financial analyst. You answer questions by running fins commands with the fins tool.
Prefer a few precise commands over many, and store intermediate baskets in $variables.
Never write to /paths unless you are asked to save a list.

Here is the fins manual:

` + manual}}},
		},
		Library: NewLibrary(lib),
		Log:     log,
	}
}

// NewResearcher creates the expert grounded on Google Search.
func NewResearcher(model string, log zerolog.Logger) *Expert {
	return &Expert{
		Name: "Researcher",
		Description: `This is the Researcher. It knows about companies, funds and markets
and finds the latest news. Ask it whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
You are a financial researcher. You search and find about companies, markets and funds.
Leverage Google Search to ground your assertions, and relate the latest news to the question.`}}},
		},
		Log: log,
	}
}

// newFacilitator creates the expert leading the conversation.
func newFacilitator(model string, experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{FunctionDeclarations: NewDeclaration(experts)}},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
You lead the conversation and solve the user's request.
The experts available as tools keep the context of your previous questions.
Devise a plan of questions to ask each expert and come up with the best answer, in markdown.`}}},
		},
		Library: NewLibrary(experts),
	}
}
