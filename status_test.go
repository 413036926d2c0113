package menuboard

import "testing"

func TestParseStatusResponse(t *testing.T) {
	body := []byte(`{
		"send_date": "2024-03-15",
		"season": "Spring",
		"period_start": "2024-03-18",
		"menu_pair": "1_2",
		"menus": [{"name": "Week 1", "url": "/menus/1.pdf"}]
	}`)

	resp, err := ParseStatusResponse(body)
	if err != nil {
		t.Fatalf("ParseStatusResponse() error = %v", err)
	}
	if resp.SendDate != "2024-03-15" || resp.Season != "Spring" {
		t.Errorf("got send_date=%q season=%q", resp.SendDate, resp.Season)
	}
	if resp.PeriodStart != "2024-03-18" || resp.MenuPair != "1_2" {
		t.Errorf("got period_start=%q menu_pair=%q", resp.PeriodStart, resp.MenuPair)
	}
	if len(resp.Menus) != 1 || resp.Menus[0] != (MenuRef{Name: "Week 1", URL: "/menus/1.pdf"}) {
		t.Errorf("Menus = %+v", resp.Menus)
	}
	if _, ok := resp.ServerReportedError(); ok {
		t.Error("ServerReportedError() reported an error for a clean response")
	}
}

func TestParseStatusResponse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"html", "<html>Internal Server Error</html>"},
		{"truncated", `{"season": "Spr`},
		{"null", "null"},
		{"array", `[1, 2]`},
		{"string", `"ok"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseStatusResponse([]byte(tt.body)); err == nil {
				t.Errorf("ParseStatusResponse(%q) should return error", tt.body)
			}
		})
	}
}

func TestParseStatusResponse_WrongFieldTypes(t *testing.T) {
	resp, err := ParseStatusResponse([]byte(`{"send_date": 20240315, "season": ["Spring"]}`))
	if err != nil {
		t.Fatalf("ParseStatusResponse() error = %v", err)
	}

	season, ok := resp.value([]string{"season"})
	if !ok || stringify(season) != `["Spring"]` {
		t.Errorf("season = %v, want raw array", season)
	}
}

func TestServerError_Truthiness(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		present bool
	}{
		{"string", `"Database unavailable"`, "Database unavailable", true},
		{"empty string", `""`, "", false},
		{"null", `null`, "", false},
		{"false", `false`, "", false},
		{"true", `true`, "true", true},
		{"zero", `0`, "", false},
		{"number", `503`, "503", true},
		{"object", `{"code": 1}`, `{"code": 1}`, true},
		{"empty array", `[]`, "[]", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseStatusResponse([]byte(`{"error": ` + tt.value + `}`))
			if err != nil {
				t.Fatalf("ParseStatusResponse() error = %v", err)
			}
			msg, ok := resp.ServerReportedError()
			if ok != tt.present {
				t.Errorf("ServerReportedError() ok = %v, want %v", ok, tt.present)
			}
			if msg != tt.want {
				t.Errorf("ServerReportedError() = %q, want %q", msg, tt.want)
			}
		})
	}
}

func TestServerError_MissingField(t *testing.T) {
	resp, err := ParseStatusResponse([]byte(`{"send_date": "2024-03-15"}`))
	if err != nil {
		t.Fatalf("ParseStatusResponse() error = %v", err)
	}
	if _, ok := resp.ServerReportedError(); ok {
		t.Error("missing error field should not count as an error")
	}
}

func TestUIState_String(t *testing.T) {
	tests := []struct {
		state UIState
		want  string
	}{
		{StateNominal, "nominal"},
		{StateErrored, "errored"},
		{UIState(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("UIState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestParseFieldFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    FieldFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{" Date ", FormatDate, false},
		{"LINKS", FormatLinks, false},
		{"currency", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFieldFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFieldFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFieldFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"Spring", "Spring"},
		{true, "true"},
		{float64(3), "3"},
		{1.5, "1.5"},
		{[]any{"a"}, `["a"]`},
	}
	for _, tt := range tests {
		if got := stringify(tt.in); got != tt.want {
			t.Errorf("stringify(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMenuRefs_SkipsNonObjects(t *testing.T) {
	refs := menuRefs([]any{
		map[string]any{"name": "Week 1", "url": "/1.pdf"},
		"junk",
		map[string]any{"name": "Week 2"},
	})
	if len(refs) != 2 {
		t.Fatalf("menuRefs() returned %d refs, want 2", len(refs))
	}
	if refs[1].Name != "Week 2" || refs[1].URL != "" {
		t.Errorf("refs[1] = %+v", refs[1])
	}
	if menuRefs("not a list") != nil {
		t.Error("menuRefs() of a non-array should be nil")
	}
}
