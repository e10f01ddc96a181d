package logging

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает имя уровня; неизвестное имя даёт INFO
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

func (l LogLevel) logrus() logrus.Level {
	switch l {
	case TRACE:
		return logrus.TraceLevel
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Options настройки системы логирования
type Options struct {
	Level      string // минимальный уровень
	Dir        string // каталог файлов логов; пусто - только консоль
	File       string // имя файла
	MaxSizeMB  int    // размер файла до ротации
	MaxBackups int    // сколько старых файлов хранить
	MaxAgeDays int    // сколько дней хранить старые файлы
	Compress   bool   // сжимать ротированные файлы
	Quiet      bool   // не писать в консоль
}

// Logger логгер компонента поверх logrus
type Logger struct {
	component string
	entry     *logrus.Entry
	minLevel  LogLevel
}

var (
	baseMu sync.RWMutex
	// До InitLogger сообщения уходят в stderr начиная с WARN, чтобы тесты не шумели
	base       = newQuietBase()
	fileWriter *lumberjack.Logger

	// Глобальный экземпляр логгера
	globalLogger = &Logger{component: "app", minLevel: TRACE}
)

func newQuietBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	return l
}

// InitLogger инициализирует систему логирования
func InitLogger(opts Options) error {
	var writers []io.Writer
	if !opts.Quiet {
		writers = append(writers, os.Stdout)
	}

	var lj *lumberjack.Logger
	if opts.Dir != "" {
		// Создаем директорию для логов
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return fmt.Errorf("ошибка создания директории %s: %w", opts.Dir, err)
		}
		name := opts.File
		if name == "" {
			name = "gamemaps.log"
		}
		lj = &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, name),
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 14),
			Compress:   opts.Compress,
		}
		writers = append(writers, lj)
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	l := logrus.New()
	l.SetOutput(io.MultiWriter(writers...))
	l.SetLevel(ParseLevel(opts.Level).logrus())
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})

	baseMu.Lock()
	if fileWriter != nil {
		fileWriter.Close()
	}
	base = l
	fileWriter = lj
	baseMu.Unlock()
	return nil
}

// CloseLogger закрывает систему логирования
func CloseLogger() {
	baseMu.Lock()
	defer baseMu.Unlock()
	if fileWriter != nil {
		fileWriter.Close()
		fileWriter = nil
	}
	base = newQuietBase()
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func currentBase() *logrus.Logger {
	baseMu.RLock()
	defer baseMu.RUnlock()
	return base
}

// newComponentLogger создаёт логгер компонента
func newComponentLogger(component string) *Logger {
	return &Logger{component: component, minLevel: TRACE}
}

// logMessage внутренняя функция для логирования
func (l *Logger) logMessage(level LogLevel, format string, args ...interface{}) {
	if level < l.minLevel {
		return
	}
	entry := l.entry
	if entry == nil {
		entry = currentBase().WithField("component", l.component)
	}
	entry.Log(level.logrus(), fmt.Sprintf(format, args...))
}

// With возвращает логгер с дополнительным полем
func (l *Logger) With(key string, value interface{}) *Logger {
	entry := l.entry
	if entry == nil {
		entry = currentBase().WithField("component", l.component)
	}
	return &Logger{component: l.component, entry: entry.WithField(key, value), minLevel: l.minLevel}
}

func (l *Logger) Trace(format string, args ...interface{}) { l.logMessage(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.logMessage(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.logMessage(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.logMessage(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.logMessage(ERROR, format, args...) }

// LogTrace логирует сообщение уровня TRACE
func LogTrace(format string, args ...interface{}) {
	globalLogger.logMessage(TRACE, format, args...)
}

// LogDebug логирует сообщение уровня DEBUG
func LogDebug(format string, args ...interface{}) {
	globalLogger.logMessage(DEBUG, format, args...)
}

// LogInfo логирует сообщение уровня INFO
func LogInfo(format string, args ...interface{}) {
	globalLogger.logMessage(INFO, format, args...)
}

// LogWarn логирует сообщение уровня WARN
func LogWarn(format string, args ...interface{}) {
	globalLogger.logMessage(WARN, format, args...)
}

// LogError логирует сообщение уровня ERROR
func LogError(format string, args ...interface{}) {
	globalLogger.logMessage(ERROR, format, args...)
}

// HexDump создает hex дамп данных
func HexDump(data []byte) string {
	if len(data) == 0 {
		return "No data"
	}

	// Ограничиваем размер дампа до 256 байт
	size := len(data)
	if size > 256 {
		size = 256
	}

	return hex.Dump(data[:size])
}
