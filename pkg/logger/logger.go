package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Category represents a log category
type Category string

const (
	CategoryAuth      Category = "auth"
	CategoryFace      Category = "face"
	CategoryAPI       Category = "api"
	CategoryDB        Category = "db"
	CategoryWebSocket Category = "websocket"
	CategoryScheduler Category = "scheduler"
	CategoryStartup   Category = "startup"
)

// AllCategories lists every category that gets its own log file
var AllCategories = []Category{
	CategoryAuth, CategoryFace, CategoryAPI, CategoryDB,
	CategoryWebSocket, CategoryScheduler, CategoryStartup,
}

// Level represents log level
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp  time.Time              `json:"timestamp"`
	Level      Level                  `json:"level"`
	Category   Category               `json:"category"`
	Action     string                 `json:"action"`
	Message    string                 `json:"message"`
	Data       map[string]interface{} `json:"data,omitempty"`
	IdentityID string                 `json:"identity_id,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
	Duration   string                 `json:"duration,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// Logger writes JSON lines to one file per category and day
type Logger struct {
	mu       sync.Mutex
	logDir   string
	writers  map[Category]*os.File
	days     map[Category]string
	console  io.Writer
	minLevel Level
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init initializes the default logger
func Init(logDir string, console bool) error {
	var err error
	once.Do(func() {
		defaultLogger, err = NewLogger(logDir, console)
	})
	return err
}

// NewLogger creates a new logger
func NewLogger(logDir string, console bool) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &Logger{
		logDir:   logDir,
		writers:  make(map[Category]*os.File),
		days:     make(map[Category]string),
		minLevel: LevelDebug,
	}
	if console {
		l.console = os.Stdout
	}
	return l, nil
}

// SetMinLevel drops entries below level
func (l *Logger) SetMinLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// getWriter returns the file for the category, rotating at midnight
func (l *Logger) getWriter(category Category) (io.Writer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := time.Now().Format("2006-01-02")
	if writer, exists := l.writers[category]; exists {
		if l.days[category] == today {
			return writer, nil
		}
		writer.Close()
	}

	path := filepath.Join(l.logDir, fmt.Sprintf("%s_%s.log", category, today))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	l.writers[category] = file
	l.days[category] = today
	return file, nil
}

// Log writes a log entry
func (l *Logger) Log(entry LogEntry) {
	l.mu.Lock()
	minLevel := l.minLevel
	l.mu.Unlock()
	if levelRank[entry.Level] < levelRank[minLevel] {
		return
	}

	entry.Timestamp = time.Now()

	jsonData, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling log entry: %v\n", err)
		return
	}

	writer, err := l.getWriter(entry.Category)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting log writer: %v\n", err)
	} else {
		fmt.Fprintln(writer, string(jsonData))
	}

	if l.console != nil {
		l.printToConsole(entry)
	}
}

var levelColors = map[Level]string{
	LevelDebug: "\033[36m", // Cyan
	LevelInfo:  "\033[32m", // Green
	LevelWarn:  "\033[33m", // Yellow
	LevelError: "\033[31m", // Red
}

// printToConsole prints formatted log to console
func (l *Logger) printToConsole(entry LogEntry) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]\033[0m [%s] [%s] %s: %s",
		levelColors[entry.Level],
		entry.Level,
		entry.Timestamp.Format("15:04:05.000"),
		entry.Category,
		entry.Action,
		entry.Message,
	)

	if entry.IdentityID != "" {
		fmt.Fprintf(&b, " (identity: %s)", entry.IdentityID)
	}
	if entry.Duration != "" {
		fmt.Fprintf(&b, " (duration: %s)", entry.Duration)
	}
	if entry.Error != "" {
		fmt.Fprintf(&b, " ERROR: %s", entry.Error)
	}
	b.WriteByte('\n')

	if len(entry.Data) > 0 {
		dataJSON, _ := json.MarshalIndent(entry.Data, "    ", "  ")
		fmt.Fprintf(&b, "    Data: %s\n", string(dataJSON))
	}

	fmt.Fprint(l.console, b.String())
}

// Close closes all file writers
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, writer := range l.writers {
		writer.Close()
	}
	l.writers = make(map[Category]*os.File)
	l.days = make(map[Category]string)
}

// Default returns the default logger
func Default() *Logger {
	if defaultLogger == nil {
		Init("logs", true)
	}
	return defaultLogger
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Auth logs authentication events
func Auth(action, message string, data map[string]interface{}) {
	Info(CategoryAuth, action, message, data)
}

// AuthError logs authentication errors
func AuthError(action, message string, err error, data map[string]interface{}) {
	Error(CategoryAuth, action, message, err, data)
}

// Face logs descriptor matching and enrollment
func Face(action, message string, data map[string]interface{}) {
	Info(CategoryFace, action, message, data)
}

// FaceError logs descriptor matching and enrollment errors
func FaceError(action, message string, err error, data map[string]interface{}) {
	Error(CategoryFace, action, message, err, data)
}

// WebSocket logs WebSocket related events
func WebSocket(action, message string, data map[string]interface{}) {
	Info(CategoryWebSocket, action, message, data)
}

// WebSocketError logs WebSocket errors
func WebSocketError(action, message string, err error, data map[string]interface{}) {
	Error(CategoryWebSocket, action, message, err, data)
}

// DB logs database operations
func DB(action, message string, data map[string]interface{}) {
	Debug(CategoryDB, action, message, data)
}

// Scheduler logs scheduled job events
func Scheduler(action, message string, data map[string]interface{}) {
	Info(CategoryScheduler, action, message, data)
}

// SchedulerWarn logs scheduler warnings
func SchedulerWarn(action, message string, data map[string]interface{}) {
	Warn(CategoryScheduler, action, message, data)
}

// SchedulerError logs scheduler errors
func SchedulerError(action, message string, err error, data map[string]interface{}) {
	Error(CategoryScheduler, action, message, err, data)
}

// Startup logs startup/initialization events
func Startup(action, message string, data map[string]interface{}) {
	Info(CategoryStartup, action, message, data)
}

// StartupError logs startup errors
func StartupError(action, message string, err error, data map[string]interface{}) {
	Error(CategoryStartup, action, message, err, data)
}

// StartupWarn logs startup warnings
func StartupWarn(action, message string, data map[string]interface{}) {
	Warn(CategoryStartup, action, message, data)
}

// Info logs info level message
func Info(category Category, action, message string, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelInfo, Category: category, Action: action, Message: message, Data: data})
}

// Error logs error level message
func Error(category Category, action, message string, err error, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelError, Category: category, Action: action, Message: message, Error: errString(err), Data: data})
}

// Debug logs debug level message
func Debug(category Category, action, message string, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelDebug, Category: category, Action: action, Message: message, Data: data})
}

// Warn logs warning level message
func Warn(category Category, action, message string, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelWarn, Category: category, Action: action, Message: message, Data: data})
}

// GetTypeName returns the dynamic type of v for diagnostics
func GetTypeName(v interface{}) string {
	return fmt.Sprintf("%T", v)
}

// ReadLogsOptions options for reading logs
type ReadLogsOptions struct {
	Category Category // Filter by category (empty = all)
	Level    Level    // Filter by level (empty = all)
	Lines    int      // Number of lines to return (default 100)
	Search   string   // Search in message/action/error
}

// ReadLogs reads today's log entries from the default logger
func ReadLogs(opts ReadLogsOptions) ([]LogEntry, error) {
	return Default().ReadLogs(opts)
}

// ReadLogs reads today's log entries, newest first
func (l *Logger) ReadLogs(opts ReadLogsOptions) ([]LogEntry, error) {
	if opts.Lines <= 0 {
		opts.Lines = 100
	}
	if opts.Lines > 1000 {
		opts.Lines = 1000
	}

	today := time.Now().Format("2006-01-02")
	categories := AllCategories
	if opts.Category != "" {
		categories = []Category{opts.Category}
	}
	search := strings.ToLower(opts.Search)

	var entries []LogEntry
	for _, cat := range categories {
		data, err := os.ReadFile(filepath.Join(l.logDir, fmt.Sprintf("%s_%s.log", cat, today)))
		if err != nil {
			continue
		}

		for _, line := range strings.Split(string(data), "\n") {
			if line == "" {
				continue
			}

			var entry LogEntry
			if err := json.Unmarshal([]byte(line), &entry); err != nil {
				continue
			}

			if opts.Level != "" && entry.Level != opts.Level {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(entry.Message), search) &&
				!strings.Contains(strings.ToLower(entry.Action), search) &&
				!strings.Contains(strings.ToLower(entry.Error), search) {
				continue
			}

			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if len(entries) > opts.Lines {
		entries = entries[:opts.Lines]
	}
	return entries, nil
}

// GetLogDir returns the directory of the default logger
func GetLogDir() string {
	return Default().logDir
}

// ListLogFiles lists the log files of the default logger, newest first
func ListLogFiles() ([]string, error) {
	entries, err := os.ReadDir(Default().logDir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".log") {
			files = append(files, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}
