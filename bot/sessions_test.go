package bot

import (
	"reflect"
	"strings"
	"sync"
	"testing"

	"invitebot/entity"
)

func TestSessionAdvance(t *testing.T) {
	noTitle, _ := newSession(entity.ModeNoTitle)
	titles, _ := newSession(entity.ModeTitles)
	mask, _ := newSession(entity.ModeMask)
	maskCount := session{mode: entity.ModeMask, step: stepAskCount, mask: "Promo {n}"}

	tests := []struct {
		name    string
		s       session
		text    string
		retry   string
		next    *session
		request *entity.CreateRequest
	}{
		{"count ok", noTitle, " 5 ", "", nil, &entity.CreateRequest{Mode: entity.ModeNoTitle, Count: 5}},
		{"count zero", noTitle, "0", textAskCount, nil, nil},
		{"count too big", noTitle, "51", textAskCount, nil, nil},
		{"count not a number", noTitle, "five", textAskCount, nil, nil},
		{"titles", titles, "a\n\n  b \n", "", nil, &entity.CreateRequest{Mode: entity.ModeTitles, Titles: []string{"a", "b"}}},
		{"titles blank", titles, " \n ", textAskTitles, nil, nil},
		{"titles too many", titles, strings.Repeat("x\n", 51), textAskTitles, nil, nil},
		{"mask", mask, "Promo {n}", "", &maskCount, nil},
		{"mask blank", mask, "  ", textAskMask, nil, nil},
		{"mask count", maskCount, "3", "", nil, &entity.CreateRequest{Mode: entity.ModeMask, Mask: "Promo {n}", Count: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.s.advance(tt.text)
			if got.retry != tt.retry {
				t.Errorf("retry = %q, want %q", got.retry, tt.retry)
			}
			if !reflect.DeepEqual(got.next, tt.next) {
				t.Errorf("next = %+v, want %+v", got.next, tt.next)
			}
			if !reflect.DeepEqual(got.request, tt.request) {
				t.Errorf("request = %+v, want %+v", got.request, tt.request)
			}
			if got.request != nil {
				if err := got.request.Validate(); err != nil {
					t.Errorf("dialog produced an invalid request: %v", err)
				}
			}
		})
	}
}

func TestSessionsArePerUser(t *testing.T) {
	s := NewSessions()
	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			st, _ := newSession(entity.ModeMask)
			st.promptId = id
			s.Set(id, st)
		}(i)
	}
	wg.Wait()

	st, ok := s.Get(7)
	if !ok || st.promptId != 7 || st.step != stepAskMask {
		t.Errorf("session 7 = %+v, %v", st, ok)
	}
	if _, ok = s.Delete(7); !ok {
		t.Error("delete must report the removed session")
	}
	if _, ok = s.Get(7); ok {
		t.Error("session 7 still present")
	}
	if _, ok = s.Get(8); !ok {
		t.Error("other users must keep their sessions")
	}
}
