package logx

import (
	"fmt"
	"io"
	"os"
)

// Output is where log lines go. Platform bootstrap may point this at a UART
// writer; tests may capture it.
var Output io.Writer = os.Stdout

func emit(level, format string, a ...any) {
	fmt.Fprintf(Output, level+": "+format+"\n", a...)
}

func Info(format string, a ...any)  { emit("Info", format, a...) }
func Warn(format string, a ...any)  { emit("Warning", format, a...) }
func Error(format string, a ...any) { emit("Error", format, a...) }

// Critical marks conditions that indicate memory-safety-adjacent bugs
// (index/buffer mismatches). The affected update is skipped, never retried.
func Critical(format string, a ...any) { emit("Critical", format, a...) }
