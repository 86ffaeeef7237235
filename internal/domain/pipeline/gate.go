package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agrigpt/agrigpt/internal/infra/llm"
)

// Canned gate replies. Deterministic branches never touch the model.
const (
	gateGreetingEmpty = "Hello! I'm AgriGPT, your farming assistant. What crop or issue would you like help with today?"
	gateGreeting      = "Hello! I'm AgriGPT, your farming assistant. What crop or issue can I help you with today?"
	gateThanks        = "You're welcome! Let me know if you have any more questions."
	gateGoodbye       = "Goodbye! Feel free to come back anytime. Happy farming!"
	gateTooShort      = "I didn't quite catch that. Could you tell me more about what you need help with?"
	gateTrouble       = "I'm having a bit of trouble. Could you tell me more about the crop and issue you're facing?"
)

// passToken is the only model output that sends a request on to routing.
const passToken = "PASS"

var (
	gateGreetings = phraseSet("hi", "hello", "hey", "hola", "good morning", "good afternoon", "good evening")
	gateThanksSet = phraseSet("thanks", "thank you", "thx", "ty", "appreciate it")
	gateGoodbyes  = phraseSet("bye", "goodbye", "see you", "later", "cya")
)

func phraseSet(phrases ...string) map[string]bool {
	m := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		m[p] = true
	}
	return m
}

// Gate decides whether a request is conversational or vague (answered
// directly) or clear enough to route to the specialist providers.
type Gate struct {
	llm llm.Provider
}

// NewGate creates a Gate backed by the given LLM provider.
func NewGate(provider llm.Provider) *Gate {
	return &Gate{llm: provider}
}

// Evaluate returns either a ready-to-show direct reply (pass=false) or a
// pass signal (pass=true, reply empty). It never returns an error: a model
// failure produces a safe clarifying question.
//
// Requests carrying an image skip the model branch entirely; the
// deterministic text checks still apply.
func (g *Gate) Evaluate(ctx context.Context, req Request, history string) (reply string, pass bool) {
	text := strings.TrimSpace(req.Text)

	if text == "" && req.ImageRef == "" {
		return gateGreetingEmpty, false
	}

	if text != "" {
		lower := strings.ToLower(text)
		switch {
		case gateGreetings[lower]:
			return gateGreeting, false
		case gateThanksSet[lower]:
			return gateThanks, false
		case gateGoodbyes[lower]:
			return gateGoodbye, false
		}
		if utf8.RuneCountInString(text) < 2 {
			return gateTooShort, false
		}
	}

	// Image presence dominates: the router resolves it without scoring, so
	// there is nothing left to clarify here.
	if req.ImageRef != "" {
		return "", true
	}

	resp, err := g.llm.ChatCompletion(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: gateSystemPrompt},
			{Role: "user", Content: gateUserPrompt(text, history, req.ImageRef != "")},
		},
		Temperature: 0.2,
		MaxTokens:   200,
	})
	if err != nil {
		return gateTrouble, false
	}

	out := strings.TrimSpace(resp.Content)
	if strings.EqualFold(out, passToken) {
		return "", true
	}
	if out == "" {
		return gateTrouble, false
	}
	return out, false
}

const gateSystemPrompt = "You are AgriGPT's friendly Clarification Assistant. " +
	"Your job is to make sure we understand the farmer's question BEFORE we try to answer it.\n\n" +
	"1. If the message is a GREETING, reply warmly and ask how you can help.\n" +
	"2. If the message is a THANK YOU or GOODBYE, reply politely.\n" +
	"3. If the message is VAGUE (missing crop name or specific issue), ask ONE simple clarifying question.\n" +
	"   Example: the farmer says 'It's dying' -> you ask 'I'm sorry to hear that! What crop is it, and what symptoms are you seeing?'\n" +
	"4. If an IMAGE was uploaded but the message is vague, acknowledge the image and ask for context.\n" +
	"5. If the message plus history is CLEAR (you know the crop AND the issue), output exactly the word: PASS\n" +
	"   Example: 'How do I treat aphids on tomatoes?' -> PASS\n" +
	"   Example: 'How do I water them?' with history mentioning tomatoes -> PASS\n\n" +
	"Output either a friendly clarifying question or greeting (1-2 sentences max), or the word PASS."

func gateUserPrompt(text, history string, hasImage bool) string {
	if history == "" {
		history = "None (this is the first message)."
	}
	imageFlag := "No"
	if hasImage {
		imageFlag = "Yes (the user uploaded an image)"
	}
	return fmt.Sprintf("Previous chat: %s\nImage uploaded: %s\n\nUser's message:\n%q", history, imageFlag, text)
}
