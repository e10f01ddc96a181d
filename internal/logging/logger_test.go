package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, TRACE, ParseLevel("trace"))
	assert.Equal(t, WARN, ParseLevel(" warning "))
	assert.Equal(t, INFO, ParseLevel("nonsense"))
	assert.Equal(t, "ERROR", ERROR.String())
}

func TestInitLogger_WritesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitLogger(Options{Level: "debug", Dir: dir, File: "test.log", Quiet: true}))
	defer CloseLogger()

	log := GetComponentLogger("test-component")
	log.Debug("отладка %d", 1)
	log.Trace("не должно попасть в файл")
	LogInfo("глобальное сообщение")

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "отладка 1")
	assert.Contains(t, text, "component=test-component")
	assert.Contains(t, text, "глобальное сообщение")
	assert.False(t, strings.Contains(text, "не должно попасть"), "TRACE ниже уровня debug")
}

func TestLoggerManager_ComponentLevels(t *testing.T) {
	lm := GetLoggerManager()
	a := lm.GetLogger("a")
	assert.Same(t, a, lm.GetLogger("a"), "логгер компонента кешируется")

	require.NoError(t, lm.SetLogLevel("a", ERROR))
	assert.Equal(t, ERROR, a.minLevel)
	assert.Error(t, lm.SetLogLevel("missing-component", INFO))
	assert.Contains(t, lm.ListComponents(), "a")
}

func TestHexDump(t *testing.T) {
	assert.Equal(t, "No data", HexDump(nil))
	dump := HexDump(make([]byte, 1000))
	assert.Equal(t, 16, strings.Count(dump, "\n"), "дамп ограничен 256 байтами")
}
