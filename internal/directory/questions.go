package directory

import (
	"context"
	"fmt"
)

// SecurityQuestions exposes the recovery question catalog.
type SecurityQuestions struct {
	api Doer
}

// NewSecurityQuestions builds a SecurityQuestions service.
func NewSecurityQuestions(api Doer) *SecurityQuestions {
	return &SecurityQuestions{api: api}
}

// List returns all security questions.
func (s *SecurityQuestions) List(ctx context.Context) ([]SecurityQuestion, error) {
	var out []SecurityQuestion
	if err := s.api.GetJSON(ctx, "/security-questions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one question.
func (s *SecurityQuestions) Get(ctx context.Context, id int64) (SecurityQuestion, error) {
	var out SecurityQuestion
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/security-questions/%d", id), &out); err != nil {
		return SecurityQuestion{}, err
	}
	return out, nil
}

// Create adds a question to the catalog.
func (s *SecurityQuestions) Create(ctx context.Context, q SecurityQuestion) (SecurityQuestion, error) {
	var out SecurityQuestion
	if err := s.api.PostJSON(ctx, "/security-questions", q, &out); err != nil {
		return SecurityQuestion{}, err
	}
	return out, nil
}

// Update modifies a question.
func (s *SecurityQuestions) Update(ctx context.Context, id int64, q SecurityQuestion) (SecurityQuestion, error) {
	var out SecurityQuestion
	if err := s.api.PutJSON(ctx, fmt.Sprintf("/security-questions/%d", id), q, &out); err != nil {
		return SecurityQuestion{}, err
	}
	return out, nil
}

// Delete removes a question.
func (s *SecurityQuestions) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/security-questions/%d", id))
}

// Answers exposes the user answers to security questions.
type Answers struct {
	api Doer
}

// NewAnswers builds an Answers service.
func NewAnswers(api Doer) *Answers {
	return &Answers{api: api}
}

// List returns all stored answers.
func (s *Answers) List(ctx context.Context) ([]Answer, error) {
	var out []Answer
	if err := s.api.GetJSON(ctx, "/answers", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns a user's answers.
func (s *Answers) ListByUser(ctx context.Context, userID int64) ([]Answer, error) {
	var out []Answer
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/answers/user/%d", userID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores an answer.
func (s *Answers) Create(ctx context.Context, a Answer) (Answer, error) {
	var out Answer
	if err := s.api.PostJSON(ctx, "/answers", a, &out); err != nil {
		return Answer{}, err
	}
	return out, nil
}

// Update modifies an answer.
func (s *Answers) Update(ctx context.Context, id int64, a Answer) (Answer, error) {
	var out Answer
	if err := s.api.PutJSON(ctx, fmt.Sprintf("/answers/%d", id), a, &out); err != nil {
		return Answer{}, err
	}
	return out, nil
}

// Delete removes an answer.
func (s *Answers) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/answers/%d", id))
}
