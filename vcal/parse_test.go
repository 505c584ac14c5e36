package vcal

import (
	"strings"
	"testing"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:event-1\r\n" +
	"SUMMARY:Team sync\\, weekly\r\n" +
	"DTSTART;TZID=Europe/Paris:20240115T100000\r\n" +
	"DTEND;TZID=Europe/Paris:20240115T110000\r\n" +
	"DESCRIPTION:Agenda:\\n- roadmap\\; budget\r\n" +
	"LOCATION:Room 4\\\\annex\r\n" +
	"CATEGORIES:work,planning\\,review\r\n" +
	"STATUS:confirmed\r\n" +
	"PRIORITY:5\r\n" +
	"X-CUSTOM-TAG:some value\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VTODO\r\n" +
	"UID:task-1\r\n" +
	"SUMMARY:File report\r\n" +
	"STATUS:NEEDS-ACTION\r\n" +
	"END:VTODO\r\n" +
	"END:VCALENDAR\r\n"

func TestParse_Basic(t *testing.T) {
	components := Parse(sampleDoc)
	require.Len(t, components, 2)

	event := components[0]
	assert.Equal(t, "event-1", event.UID)
	assert.Equal(t, CompEvent, event.Type)
	assert.Equal(t, "Team sync, weekly", event.Summary)
	assert.Equal(t, "20240115T100000(Europe/Paris)", event.Start)
	assert.Equal(t, "20240115T110000(Europe/Paris)", event.End)
	assert.Equal(t, "Agenda:\n- roadmap; budget", event.Description)
	assert.Equal(t, `Room 4\annex`, event.Location)
	assert.Equal(t, []string{"work", "planning,review"}, event.Categories)
	assert.Equal(t, "CONFIRMED", event.Status)
	assert.Equal(t, 5, event.Priority)
	assert.Equal(t, "some value", event.Extra["x-custom-tag"])

	todo := components[1]
	assert.Equal(t, "task-1", todo.UID)
	assert.Equal(t, CompTodo, todo.Type)
}

func TestParse_UnfoldsContinuationLines(t *testing.T) {
	doc := "BEGIN:VEVENT\r\n" +
		"UID:folded-1\r\n" +
		"SUMMARY:This summary was fol\r\n" +
		" ded across\r\n" +
		"\tthree lines\r\n" +
		"END:VEVENT\r\n"
	components := Parse(doc)
	require.Len(t, components, 1)
	assert.Equal(t, "This summary was folded acrossthree lines", components[0].Summary)
}

func TestParse_DropsComponentsWithoutUID(t *testing.T) {
	doc := "BEGIN:VEVENT\r\nSUMMARY:anonymous\r\nEND:VEVENT\r\n" +
		"BEGIN:VJOURNAL\r\nUID:j1\r\nEND:VJOURNAL\r\n"
	components := Parse(doc)
	require.Len(t, components, 1)
	assert.Equal(t, "j1", components[0].UID)
	assert.Equal(t, CompJournal, components[0].Type)
}

func TestParse_IgnoresUnknownComponents(t *testing.T) {
	doc := "BEGIN:VALARM\r\nUID:nope\r\nTRIGGER:-PT15M\r\nEND:VALARM\r\n" +
		"BEGIN:VEVENT\r\nUID:e1\r\nEND:VEVENT\r\n"
	components := Parse(doc)
	require.Len(t, components, 1)
	assert.Equal(t, "e1", components[0].UID)
}

func TestParse_SkipsBlankAndMalformedLines(t *testing.T) {
	doc := "BEGIN:VEVENT\nUID:e1\n\nnot a property line\nEND:VEVENT\n"
	components := Parse(doc)
	require.Len(t, components, 1)
}

func TestRoundTrip(t *testing.T) {
	first := Parse(sampleDoc)
	second := Parse(Serialize(first))
	require.Equal(t, len(first), len(second))
	for i := range first {
		// Serialization scrubs the timezone annotation back off the
		// date values; everything else survives exactly, extension
		// properties included.
		want := first[i]
		want.Start = dateScrub.ReplaceAllString(want.Start, "")
		want.End = dateScrub.ReplaceAllString(want.End, "")
		assert.Equal(t, want, second[i])
	}
}

func TestSerialize_EmitsExtensionProperties(t *testing.T) {
	doc := Serialize([]Component{{
		UID:  "e1",
		Type: CompEvent,
		Extra: map[string]string{
			"x-team":       "platform; core",
			"x-custom-tag": "some value",
		},
	}})
	// Extension properties come after the known fields, sorted by name,
	// with text escaping applied.
	assert.Contains(t, doc, "X-CUSTOM-TAG:some value\r\nX-TEAM:platform\\; core\r\n")
}

func TestSerialize_InfersComponentType(t *testing.T) {
	doc := Serialize([]Component{
		{UID: "a", Start: "20240101"},
		{UID: "b", Status: "NEEDS-ACTION"},
		{UID: "c"},
	})
	assert.Contains(t, doc, "BEGIN:VEVENT")
	assert.Contains(t, doc, "BEGIN:VTODO")
	assert.Contains(t, doc, "BEGIN:VJOURNAL")
}

func TestSerialize_DecodesWithConformantParser(t *testing.T) {
	components := Parse(sampleDoc)
	out := Serialize(components)

	cal, err := ical.NewDecoder(strings.NewReader(out)).Decode()
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	uid, err := events[0].Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "event-1", uid)
}

func TestEmptyDocument(t *testing.T) {
	doc := EmptyDocument()
	assert.Contains(t, doc, "BEGIN:VCALENDAR")
	assert.Contains(t, doc, "VERSION:2.0")
	assert.Empty(t, Parse(doc))
}

func TestEscapeUnescape(t *testing.T) {
	raw := "a,b;c\\d\ne"
	assert.Equal(t, `a\,b\;c\\d\ne`, Escape(raw))
	assert.Equal(t, raw, Unescape(Escape(raw)))

	// Unknown escape sequences pass through untouched.
	assert.Equal(t, `a\tb`, Unescape(`a\tb`))
	// A trailing lone backslash survives.
	assert.Equal(t, `tail\`, Unescape(`tail\`))
}
