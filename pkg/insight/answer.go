package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/expensetracker/expenses/internal/metrics"
	"github.com/expensetracker/expenses/pkg/llm"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidQuestion = errors.New("invalid question")

const MaxQuestionLength = 500

const (
	storageErrorAnswer = "I'm having trouble analyzing your expenses right now. This could be due to a connection issue or temporary service unavailability. Please try again in a moment."
	fallbackAnswer     = "I'm having trouble analyzing your data right now. Please try again in a moment, or check if you have recent expenses recorded."
)

const answerSystemPrompt = "You are a helpful financial advisor. Provide specific, actionable advice in 2-3 sentences based on the expense data."

const answerPromptTemplate = `Question: "%s"

Context:
- Total expenses: %s
- Average: %s
- Categories: %s
- Recent expenses: %s

Provide a helpful 2-3 sentence answer with specific advice based on the data.`

// AnswerQuestion answers a free text question about the current user's recent spending.
func (s *ServiceImpl) AnswerQuestion(ctx context.Context, question string) (string, error) {
	userId, err := currentUserId(ctx)
	if err != nil {
		return "", err
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question is required", ErrInvalidQuestion)
	}
	if utf8.RuneCountInString(question) > MaxQuestionLength {
		return "", fmt.Errorf("%w: question must be at most %d characters", ErrInvalidQuestion, MaxQuestionLength)
	}

	expenses, err := s.loadContext(ctx)
	if err != nil {
		log.Errorf("failed to load expenses to answer question of user %d: %v", userId, err)
		metrics.RecordInsightSource("answer", "fallback")
		return storageErrorAnswer, nil
	}

	if answer, ok := ruleAnswer(question, expenses); ok {
		metrics.RecordInsightSource("answer", "rule")
		return answer, nil
	}

	prompt := fmt.Sprintf(answerPromptTemplate,
		question,
		money(expenses.total),
		money(expenses.average),
		strings.Join(expenses.categoryNames(), ", "),
		expenses.promptExpenses(8, 30),
	)
	answer, err := s.llm.Complete(ctx, llm.Request{
		Purpose: "answer",
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: answerSystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		Temperature: 0.5,
		MaxTokens:   150,
	})
	if err != nil {
		if !isDisabled(err) {
			log.Warnf("AI answer unavailable: %v", err)
		}
		metrics.RecordInsightSource("answer", "fallback")
		return fallbackAnswer, nil
	}

	metrics.RecordInsightSource("answer", "ai")
	return strings.TrimSpace(answer), nil
}
