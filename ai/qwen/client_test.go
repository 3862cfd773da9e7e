package qwen

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func completionResponse(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func TestPromptSendsMessagesAndReturnsContent(t *testing.T) {
	t.Parallel()

	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Write([]byte(completionResponse("sounds like a great trip")))
	}))
	defer server.Close()

	client := NewClient(WithAPIKey("test-key"), WithBaseURL(server.URL), WithModel("qwen-test"))
	response, err := client.Prompt(context.Background(), "I want to go to Shanghai",
		WithInstructions("you are a travel assistant"),
		WithHistory([]Turn{{Prompt: "hello", Response: "hi"}}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response != "sounds like a great trip" {
		t.Fatalf("unexpected response: %q", response)
	}

	if captured.Model != "qwen-test" {
		t.Fatalf("unexpected model: %q", captured.Model)
	}
	roles := []string{}
	for _, message := range captured.Messages {
		roles = append(roles, message.Role)
	}
	want := []string{"system", "user", "assistant", "user"}
	if len(roles) != len(want) {
		t.Fatalf("unexpected message roles: %v", roles)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("unexpected message roles: %v", roles)
		}
	}
	if last := captured.Messages[len(captured.Messages)-1]; last.Content != "I want to go to Shanghai" {
		t.Fatalf("unexpected prompt message: %+v", last)
	}
}

func TestPromptSurfacesHTTPErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(WithAPIKey("test-key"), WithBaseURL(server.URL))
	if _, err := client.Prompt(context.Background(), "hello"); err == nil {
		t.Fatalf("expected an error for a non-OK status")
	}
}

type extractionFixture struct {
	City string `json:"city"`
	Days int    `json:"days"`
}

func TestPromptJSONSchemaRequestsStrictSchema(t *testing.T) {
	t.Parallel()

	var captured struct {
		ResponseFormat *ChatResponseFormat `json:"response_format"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Write([]byte(completionResponse(`{"city":"Shanghai","days":3}`)))
	}))
	defer server.Close()

	client := NewClient(WithAPIKey("test-key"), WithBaseURL(server.URL))
	result, err := PromptJSONSchema(context.Background(), client, "three days in shanghai", "extract the trip", extractionFixture{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.City != "Shanghai" || result.Days != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_schema" {
		t.Fatalf("expected a json_schema response format, got %+v", captured.ResponseFormat)
	}
	if captured.ResponseFormat.JSONSchema == nil || captured.ResponseFormat.JSONSchema.Name != "extractionFixture" {
		t.Fatalf("expected the schema named after the output type, got %+v", captured.ResponseFormat.JSONSchema)
	}
	if !captured.ResponseFormat.JSONSchema.Strict {
		t.Fatalf("expected a strict schema")
	}
}

func TestPromptJSONSchemaStripsCodeFences(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse("```json\n{\"city\":\"Kyoto\",\"days\":2}\n```")))
	}))
	defer server.Close()

	client := NewClient(WithAPIKey("test-key"), WithBaseURL(server.URL))
	result, err := PromptJSONSchema(context.Background(), client, "two days in kyoto", "", extractionFixture{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.City != "Kyoto" || result.Days != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
}
