package bot

import (
	"invitebot/entity"
	"strconv"
	"strings"
	"sync"
)

type step string

const (
	stepAskCount step = "ask_count"
	stepAskList  step = "ask_list"
	stepAskMask  step = "ask_mask"
)

// session is the state of one user's creation dialog.
type session struct {
	mode     entity.CreateMode
	step     step
	mask     string
	promptId int64 // message to remove once the user answers
}

// Sessions keeps dialog state per user.
type Sessions struct {
	mu    sync.Mutex
	items map[int64]session
}

func NewSessions() *Sessions {
	return &Sessions{items: make(map[int64]session)}
}

func (s *Sessions) Get(userId int64) (session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.items[userId]
	return st, ok
}

func (s *Sessions) Set(userId int64, st session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[userId] = st
}

func (s *Sessions) Delete(userId int64) (session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.items[userId]
	delete(s.items, userId)
	return st, ok
}

// newSession opens the dialog for a creation mode.
func newSession(mode entity.CreateMode) (session, string) {
	switch mode {
	case entity.ModeTitles:
		return session{mode: mode, step: stepAskList}, textAskTitles
	case entity.ModeMask:
		return session{mode: mode, step: stepAskMask}, textAskMask
	default:
		return session{mode: entity.ModeNoTitle, step: stepAskCount}, textAskCount
	}
}

// outcome of one user reply: either ask again, move to the next step or run the request.
type outcome struct {
	retry   string
	next    *session
	prompt  string
	request *entity.CreateRequest
}

func (s session) advance(text string) outcome {
	text = strings.TrimSpace(text)
	switch {
	case s.step == stepAskCount:
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || n > entity.MaxBatchCount {
			return outcome{retry: textAskCount}
		}
		if s.mode == entity.ModeMask {
			return outcome{request: &entity.CreateRequest{Mode: entity.ModeMask, Mask: s.mask, Count: n}}
		}
		return outcome{request: &entity.CreateRequest{Mode: entity.ModeNoTitle, Count: n}}

	case s.step == stepAskList:
		titles := make([]string, 0)
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				titles = append(titles, line)
			}
		}
		if len(titles) == 0 || len(titles) > entity.MaxBatchTitles {
			return outcome{retry: textAskTitles}
		}
		return outcome{request: &entity.CreateRequest{Mode: entity.ModeTitles, Titles: titles}}

	case s.step == stepAskMask:
		if text == "" {
			return outcome{retry: textAskMask}
		}
		next := session{mode: entity.ModeMask, step: stepAskCount, mask: text}
		return outcome{next: &next, prompt: textAskCount}
	}
	return outcome{}
}
