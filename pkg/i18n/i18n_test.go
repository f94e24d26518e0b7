package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_FallsBackToEnglish(t *testing.T) {
	assert.Equal(t, "en", New("").Locale())
	assert.Equal(t, "en", New("fr-FR").Locale())
	assert.Equal(t, "en", New("not a tag!").Locale())
	assert.Equal(t, "uk", New("uk-UA").Locale())
}

func TestT_EnglishUsesKeyAsFormat(t *testing.T) {
	l := New("en")
	assert.Equal(t, "Task not found: 999", l.T("Task not found: %s", "999"))
	assert.Equal(t, "You don't have access to this command.", l.T("You don't have access to this command."))
}

func TestT_Ukrainian(t *testing.T) {
	l := New("uk")
	assert.Equal(t, "Задачу не знайдено: 5", l.T("Task not found: %s", "5"))
	assert.Equal(t, "Задача [5]: Задачу призупинено.", l.T("Task [%s]: %s", "5", l.T("Task paused.")))
}

func TestT_NilLocalizer(t *testing.T) {
	var l *Localizer
	assert.Equal(t, "Unknown command: /x", l.T("Unknown command: %s", "/x"))
	assert.Equal(t, "en", l.Locale())
}
