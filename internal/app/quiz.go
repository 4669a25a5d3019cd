package app

import "sort"

// Quiz is immutable once generated. AnswerState lives in the view model, not
// here, so a quiz can be retaken without regenerating.
type Quiz struct {
	Questions []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	ID           int               `json:"id"`
	Prompt       string            `json:"question"`
	Choices      map[string]string `json:"options"`
	CorrectLabel string            `json:"correct_answer"`
	Explanation  string            `json:"explanation"`
}

// Labels returns the choice labels in stable display order.
func (q QuizQuestion) Labels() []string {
	labels := make([]string, 0, len(q.Choices))
	for label := range q.Choices {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// AnswerState tracks one question's answer. The first selection is final.
type AnswerState struct {
	Selected string
	Answered bool
	Correct  bool
}

// QuizProgress holds mutable per-question state for one take of a quiz.
type QuizProgress struct {
	quiz    *Quiz
	answers map[int]*AnswerState
	current int
	done    bool
}

func NewQuizProgress(quiz *Quiz) *QuizProgress {
	return &QuizProgress{quiz: quiz, answers: make(map[int]*AnswerState)}
}

func (p *QuizProgress) Quiz() *Quiz { return p.quiz }

func (p *QuizProgress) Len() int { return len(p.quiz.Questions) }

func (p *QuizProgress) CurrentIndex() int { return p.current }

func (p *QuizProgress) Current() *QuizQuestion {
	if p.current < 0 || p.current >= len(p.quiz.Questions) {
		return nil
	}
	return &p.quiz.Questions[p.current]
}

func (p *QuizProgress) Answer(questionID int) *AnswerState {
	return p.answers[questionID]
}

// Select records the answer for the current question. Selections after the
// first are ignored; the state never leaves answered.
func (p *QuizProgress) Select(label string) {
	q := p.Current()
	if q == nil {
		return
	}
	if st := p.answers[q.ID]; st != nil && st.Answered {
		return
	}
	if _, ok := q.Choices[label]; !ok {
		return
	}
	p.answers[q.ID] = &AnswerState{
		Selected: label,
		Answered: true,
		Correct:  label == q.CorrectLabel,
	}
}

// Next advances to the following question, or marks the quiz complete when
// already on the last one.
func (p *QuizProgress) Next() {
	if p.current < len(p.quiz.Questions)-1 {
		p.current++
		return
	}
	p.done = true
}

func (p *QuizProgress) Previous() {
	if p.current > 0 {
		p.current--
	}
}

func (p *QuizProgress) Completed() bool { return p.done }

// Restart wipes answer state for a fresh take of the same quiz.
func (p *QuizProgress) Restart() {
	p.answers = make(map[int]*AnswerState)
	p.current = 0
	p.done = false
}

type QuizScore struct {
	Correct    int
	Total      int
	Percentage int
}

// Score counts answered questions only, matching what the user has seen.
func (p *QuizProgress) Score() QuizScore {
	s := QuizScore{}
	for _, st := range p.answers {
		if !st.Answered {
			continue
		}
		s.Total++
		if st.Correct {
			s.Correct++
		}
	}
	if s.Total > 0 {
		s.Percentage = int(float64(s.Correct)/float64(s.Total)*100 + 0.5)
	}
	return s
}

// Review returns the answered-but-incorrect questions in quiz order.
func (p *QuizProgress) Review() []QuizQuestion {
	var wrong []QuizQuestion
	for _, q := range p.quiz.Questions {
		st := p.answers[q.ID]
		if st != nil && st.Answered && !st.Correct {
			wrong = append(wrong, q)
		}
	}
	return wrong
}
