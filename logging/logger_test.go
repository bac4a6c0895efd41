package logging

import "testing"

func TestNewRejectsUnknownEnvironment(t *testing.T) {
	if _, err := New(&Config{Environment: "staging"}); err == nil {
		t.Fatal("expected an error for an unrecognized environment")
	}
}

func TestNewDefaultsToProduction(t *testing.T) {
	l, err := New(&Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Sync()
	l.Info("started", "component", "test")
}

func TestNamedReturnsDistinctLogger(t *testing.T) {
	l, err := New(&Config{Environment: "development"})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Sync()
	named := l.Named("wot")
	named.Debug("computing effective trust", "root", "abc123")
}
