package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu          sync.RWMutex
	infoLogger  = log.New(os.Stderr, "[INFO] ", log.Ldate|log.Ltime)
	errorLogger = log.New(os.Stderr, "[ERROR] ", log.Ldate|log.Ltime)
	debugLogger *log.Logger
)

// Init routes all output to w. Debug lines are only written when verbose is set.
func Init(w io.Writer, verbose bool) {
	if w == nil {
		w = os.Stderr
	}

	mu.Lock()
	defer mu.Unlock()

	infoLogger = log.New(w, "[INFO] ", log.Ldate|log.Ltime)
	errorLogger = log.New(w, "[ERROR] ", log.Ldate|log.Ltime)
	debugLogger = nil
	if verbose {
		debugLogger = log.New(w, "[DEBUG] ", log.Ldate|log.Ltime|log.Lmicroseconds)
	}
}

// Discard silences everything; used by tests and quiet commands
func Discard() {
	Init(io.Discard, false)
}

func Info(format string, v ...interface{}) {
	mu.RLock()
	l := infoLogger
	mu.RUnlock()
	l.Output(2, fmt.Sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	mu.RLock()
	l := errorLogger
	mu.RUnlock()
	l.Output(2, fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	mu.RLock()
	l := debugLogger
	mu.RUnlock()
	if l == nil {
		return
	}
	l.Output(2, fmt.Sprintf(format, v...))
}
