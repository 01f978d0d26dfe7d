package try_test

import (
	"errors"
	"testing"

	"github.com/opst/solarscan/pkg/utils/try"
)

type fataler struct {
	fatal [][]any
}

func (f *fataler) Fatal(args ...any) {
	f.fatal = append(f.fatal, args)
}

type helperfataler struct {
	fataler

	helper uint
}

func (hf *helperfataler) Helper() {
	hf.helper += 1
}

func TestTry(t *testing.T) {
	t.Run("when it does not have error,", func(t *testing.T) {
		testee := try.To("config.yaml", nil)

		t.Run("Get returns the value", func(t *testing.T) {
			v, err := testee.Get()
			if v != "config.yaml" || err != nil {
				t.Errorf("unexpected: (%s, %v)", v, err)
			}
		})

		t.Run("OrDefault returns the value", func(t *testing.T) {
			if v := testee.OrDefault("default"); v != "config.yaml" {
				t.Errorf("unexpected: %s", v)
			}
		})

		t.Run("OrFatal returns the value without calling Fatal nor Helper", func(t *testing.T) {
			f := &helperfataler{}
			if v := testee.OrFatal(f); v != "config.yaml" {
				t.Errorf("unexpected: %s", v)
			}
			if len(f.fatal) != 0 || f.helper != 0 {
				t.Errorf("Fatal or Helper is called: %+v", f)
			}
		})
	})

	t.Run("when it has error,", func(t *testing.T) {
		err := errors.New("fake error")
		testee := try.To("ignored", err)

		t.Run("Get returns zero value and the error", func(t *testing.T) {
			v, got := testee.Get()
			if v != "" || got != err {
				t.Errorf("unexpected: (%s, %v)", v, got)
			}
		})

		t.Run("OrDefault returns default value", func(t *testing.T) {
			if v := testee.OrDefault("default"); v != "default" {
				t.Errorf("unexpected: %s", v)
			}
		})

		t.Run("OrFatal calls Fatal with the error", func(t *testing.T) {
			f := &fataler{}
			if v := testee.OrFatal(f); v != "" {
				t.Errorf("unexpected: %s", v)
			}
			if len(f.fatal) != 1 || len(f.fatal[0]) != 1 || f.fatal[0][0] != err {
				t.Errorf("unexpected Fatal calls: %v", f.fatal)
			}
		})

		t.Run("OrFatal calls Helper for HelperFataler", func(t *testing.T) {
			f := &helperfataler{}
			testee.OrFatal(f)
			if f.helper != 1 {
				t.Errorf("Helper is called %d times", f.helper)
			}
		})
	})
}
