package task

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestUnmarshalParentShapes(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantID int64
		wantOK bool
	}{
		{"parent_id", `{"id":2,"parent_id":1}`, 1, true},
		{"parent object", `{"id":2,"parent":{"id":7}}`, 7, true},
		{"null parent_id", `{"id":2,"parent_id":null}`, 0, false},
		{"missing", `{"id":2}`, 0, false},
		{"both prefers parent_id", `{"id":2,"parent_id":3,"parent":{"id":4}}`, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tk Task
			if err := json.Unmarshal([]byte(tt.input), &tk); err != nil {
				t.Fatal(err)
			}
			id, ok := tk.Parent.Get()
			if ok != tt.wantOK || id != tt.wantID {
				t.Fatalf("parent = (%d, %v), want (%d, %v)", id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestMarshalWritesParentID(t *testing.T) {
	tk := Task{ID: 5, Subject: "child", Parent: ParentID(1), DoneRatio: 40}
	data, err := json.Marshal(tk)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, `"parent_id":1`) {
		t.Fatalf("expected parent_id in %s", s)
	}
	if strings.Contains(s, `"parent":`) {
		t.Fatalf("parent object should not be written: %s", s)
	}

	var back Task
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Parent != tk.Parent || back.DoneRatio != 40 {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestDoneRatioClamped(t *testing.T) {
	var tk Task
	json.Unmarshal([]byte(`{"id":1,"done_ratio":250}`), &tk)
	if tk.DoneRatio != 100 {
		t.Fatalf("done_ratio = %d, want 100", tk.DoneRatio)
	}
	json.Unmarshal([]byte(`{"id":1,"progress":-5}`), &tk)
	if tk.DoneRatio != 0 {
		t.Fatalf("progress = %d, want 0", tk.DoneRatio)
	}
}

func TestDateDecoding(t *testing.T) {
	var tk Task
	err := json.Unmarshal([]byte(`{"id":1,"start_date":"2024-01-03","due_date":"not-a-date"}`), &tk)
	if err != nil {
		t.Fatalf("malformed date must not fail decoding: %v", err)
	}
	if !tk.StartDate.Valid() {
		t.Fatal("start_date should be valid")
	}
	if tk.DueDate.Valid() {
		t.Fatal("due_date should be invalid")
	}
	if tk.DueDate.IsNull() {
		t.Fatal("malformed date is not null")
	}
	if tk.DueDate.String() != "not-a-date" {
		t.Fatalf("raw text lost: %q", tk.DueDate.String())
	}
	if tk.HasSpan() {
		t.Fatal("task with bad due date has no span")
	}
}

func TestDateNumberIsMalformed(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`12`), &d); err != nil {
		t.Fatal(err)
	}
	if d.Valid() || d.IsNull() {
		t.Fatalf("numeric date should be malformed, got %+v", d)
	}
}

func TestParseDateTimestamp(t *testing.T) {
	d := ParseDate("2024-03-05T22:10:00Z")
	if !d.Valid() || d.String() != "2024-03-05" {
		t.Fatalf("got %q valid=%v", d.String(), d.Valid())
	}
}

func TestNullDateMarshalsNull(t *testing.T) {
	data, _ := json.Marshal(Date{})
	if string(data) != "null" {
		t.Fatalf("got %s", data)
	}
}

func TestDayTruncates(t *testing.T) {
	in := time.Date(2024, 1, 3, 17, 45, 0, 0, time.FixedZone("X", 3600))
	got := Day(in)
	want := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Day = %v, want %v", got, want)
	}
}

func TestMustDatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustDate("bogus")
}

func TestLinkTypeDecoding(t *testing.T) {
	tests := []struct {
		input string
		want  LinkType
	}{
		{`{"type":"0"}`, FinishToStart},
		{`{"type":"1"}`, StartToStart},
		{`{"type":"finish_to_finish"}`, FinishToFinish},
		{`{"type":"3"}`, StartToFinish},
		{`{}`, FinishToStart},
	}
	for _, tt := range tests {
		var l Link
		if err := json.Unmarshal([]byte(tt.input), &l); err != nil {
			t.Fatalf("%s: %v", tt.input, err)
		}
		if l.Type != tt.want {
			t.Errorf("%s: type = %v, want %v", tt.input, l.Type, tt.want)
		}
	}

	var l Link
	if err := json.Unmarshal([]byte(`{"type":"7"}`), &l); err == nil {
		t.Error("expected an error for an unknown code")
	}

	b, _ := json.Marshal(Link{ID: 1, Source: 2, Target: 3, Type: StartToStart})
	if !strings.Contains(string(b), `"type":"start_to_start"`) {
		t.Errorf("marshal = %s", b)
	}
}

func TestLinkTypeEnds(t *testing.T) {
	if !FinishToStart.FromEnd() || !FinishToStart.ToStart() {
		t.Error("finish_to_start leaves the end and enters the start")
	}
	if StartToFinish.FromEnd() || StartToFinish.ToStart() {
		t.Error("start_to_finish leaves the start and enters the end")
	}
}
