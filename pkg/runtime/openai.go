package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"threadkit/pkg/logger"
	"threadkit/pkg/models"
	"threadkit/pkg/store"

	openai "github.com/openai/openai-go"
	ooption "github.com/openai/openai-go/option"
	oresponses "github.com/openai/openai-go/responses"
	oshared "github.com/openai/openai-go/shared"
)

const (
	openaiInstructions = "You manage the user's shared task list. Use the task tools to " +
		"add, complete, delete and list tasks when the user asks for task changes; " +
		"answer directly otherwise. Keep replies short."

	// maxToolRounds bounds the tool loop so a confused model cannot spin.
	maxToolRounds = 8
)

// OpenAI is the production Runtime: the Responses API with function tools
// executed against the task store, looping until the model stops calling
// tools.
type OpenAI struct {
	client openai.Client
	model  string
	tasks  TaskOps
}

// NewOpenAI builds the OpenAI runtime. baseURL is optional and points the
// client at a compatible gateway when set.
func NewOpenAI(apiKey, baseURL, model string, tasks TaskOps) *OpenAI {
	opts := []ooption.RequestOption{ooption.WithAPIKey(strings.TrimSpace(apiKey))}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, ooption.WithBaseURL(strings.TrimSpace(baseURL)))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  strings.TrimSpace(model),
		tasks:  tasks,
	}
}

func taskTools() []oresponses.ToolUnionParam {
	titleSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string", "description": "Task title"},
		},
		"required":             []string{"title"},
		"additionalProperties": false,
	}
	idSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"task_id": map[string]any{"type": "string", "description": "Task identifier"},
		},
		"required":             []string{"task_id"},
		"additionalProperties": false,
	}
	emptySchema := map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
	return []oresponses.ToolUnionParam{
		oresponses.ToolParamOfFunction("add_task", titleSchema, false),
		oresponses.ToolParamOfFunction("complete_task", idSchema, false),
		oresponses.ToolParamOfFunction("delete_task", idSchema, false),
		oresponses.ToolParamOfFunction("list_tasks", emptySchema, false),
	}
}

// Respond runs the tool loop: send history, execute any function calls
// against the task set, feed outputs back, repeat until the model answers in
// plain text. DisplayRequested is set as soon as any task tool ran.
func (o *OpenAI) Respond(ctx context.Context, thread models.Thread, history []models.Item) (TurnResult, error) {
	var result TurnResult

	input := make(oresponses.ResponseInputParam, 0, len(history))
	for _, it := range history {
		switch it.Type {
		case models.ItemUserMessage:
			input = append(input, oresponses.ResponseInputItemParamOfMessage(it.Text(), oresponses.EasyInputMessageRoleUser))
		case models.ItemAssistantMessage:
			if txt := it.Text(); txt != "" {
				input = append(input, oresponses.ResponseInputItemParamOfMessage(txt, oresponses.EasyInputMessageRoleAssistant))
			}
		}
		// widget and tool_call items are rendering artifacts, not model context
	}

	for round := 0; round < maxToolRounds; round++ {
		params := oresponses.ResponseNewParams{
			Model:        oshared.ResponsesModel(o.model),
			Instructions: openai.String(openaiInstructions),
			Tools:        taskTools(),
			Input:        oresponses.ResponseNewParamsInputUnion{OfInputItemList: input},
		}
		resp, err := o.client.Responses.New(ctx, params)
		if err != nil {
			return result, fmt.Errorf("runtime request: %w", err)
		}

		ranTool := false
		for _, item := range resp.Output {
			if strings.TrimSpace(item.Type) != "function_call" {
				continue
			}
			ranTool = true
			callID := strings.TrimSpace(item.CallID)
			if callID == "" {
				callID = strings.TrimSpace(item.ID)
			}
			name := strings.TrimSpace(item.Name)
			args := strings.TrimSpace(item.Arguments)
			output := o.execTool(name, args, thread.ID)

			result.ToolTraces = append(result.ToolTraces, ToolTrace{Name: name, Arguments: args, Result: output})
			result.DisplayRequested = true
			input = append(input, oresponses.ResponseInputItemParamOfFunctionCall(args, callID, name))
			input = append(input, oresponses.ResponseInputItemParamOfFunctionCallOutput(callID, output))
			logger.Debug("runtime_tool_executed", "thread", thread.ID, "tool", name)
		}
		if !ranTool {
			result.Reply = strings.TrimSpace(resp.OutputText())
			return result, nil
		}
	}
	result.Reply = "I could not finish the requested task changes."
	return result, nil
}

// execTool runs one task tool and returns the JSON payload handed back to
// the model. Tool failures are reported to the model, never escalated.
func (o *OpenAI) execTool(name, rawArgs, threadID string) string {
	var args struct {
		Title  string `json:"title"`
		TaskID string `json:"task_id"`
	}
	if rawArgs != "" {
		_ = json.Unmarshal([]byte(rawArgs), &args)
	}

	switch name {
	case "add_task":
		t, err := o.tasks.Add(args.Title, threadID)
		if err != nil {
			return toolError(err)
		}
		return toolJSON(t)
	case "complete_task":
		t, err := o.tasks.Complete(args.TaskID)
		if errors.Is(err, store.ErrNotFound) {
			return toolJSON(map[string]string{"status": "not_found"})
		}
		if err != nil {
			return toolError(err)
		}
		return toolJSON(t)
	case "delete_task":
		err := o.tasks.Delete(args.TaskID)
		if errors.Is(err, store.ErrNotFound) {
			return toolJSON(map[string]string{"status": "not_found"})
		}
		if err != nil {
			return toolError(err)
		}
		return toolJSON(map[string]string{"status": "deleted"})
	case "list_tasks":
		tasks, err := o.tasks.List()
		if err != nil {
			return toolError(err)
		}
		return toolJSON(map[string]any{"tasks": tasks})
	default:
		return toolJSON(map[string]string{"error": "unknown tool " + name})
	}
}

func toolJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"marshal failed"}`
	}
	return string(b)
}

func toolError(err error) string {
	return toolJSON(map[string]string{"error": err.Error()})
}
