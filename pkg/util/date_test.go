package util

import (
    "testing"
    "time"
)

func TestParseTime(t *testing.T) {
    cases := []struct {
        in string
        ok bool
    }{
        {"2026-01-15T10:30:00Z", true},
        {"2026-01-15T10:30:00.123456789Z", true},
        {"1736937000", true},
        {"", false},
        {"not-a-time", false},
        {"-5", false},
    }
    for _, c := range cases {
        _, ok := ParseTime(c.in)
        if ok != c.ok {
            t.Errorf("ParseTime(%q): ok=%v, want %v", c.in, ok, c.ok)
        }
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
    if got := ParseTimeDefault("garbage", def); !got.Equal(def) {
        t.Errorf("invalid input should return default, got %v", got)
    }
    want := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
    if got := ParseTimeDefault("2026-01-15T10:30:00Z", def); !got.Equal(want) {
        t.Errorf("got %v, want %v", got, want)
    }
}

func TestDayStart(t *testing.T) {
    in := time.Date(2026, 3, 9, 17, 45, 12, 999, time.UTC)
    want := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
    if got := DayStart(in); !got.Equal(want) {
        t.Errorf("got %v, want %v", got, want)
    }
}

func TestLookbackWindow(t *testing.T) {
    now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
    from, to := LookbackWindow(now, 90)
    if !to.Equal(now) {
        t.Errorf("to: got %v, want %v", to, now)
    }
    if want := now.AddDate(0, 0, -90); !from.Equal(want) {
        t.Errorf("from: got %v, want %v", from, want)
    }
}

func TestNormalizeSymbol(t *testing.T) {
    cases := []struct{ in, want string }{
        {" spy ", "SPY"},
        {"qqq", "QQQ"},
        {"XLE", "XLE"},
        {"", ""},
    }
    for _, c := range cases {
        if got := NormalizeSymbol(c.in); got != c.want {
            t.Errorf("NormalizeSymbol(%q) = %q, want %q", c.in, got, c.want)
        }
    }
}
