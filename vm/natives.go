package vm

import "fmt"

// ---------------------------------------------------------------------------
// Natives: host functions in the global frame
// ---------------------------------------------------------------------------

// NativeNames lists the natives every interpreter starts with.
var NativeNames = []string{"clock", "read", "printF", "printFLine"}

func registerNatives(in *Interpreter) {
	in.defineNative("clock", 0, nativeClock)
	in.defineNative("read", 0, nativeRead)
	in.defineNative("printF", 1, nativePrint)
	in.defineNative("printFLine", 1, nativePrintLine)
}

// defineNative binds a native in the global frame.
func (in *Interpreter) defineNative(name string, arity int, fn NativeFunc) {
	in.globals.define(name, NewNative(name, arity, fn))
}

// nativeClock returns seconds since the Unix epoch with a fractional part.
func nativeClock(in *Interpreter, _ []Value) (Value, error) {
	return float64(in.now().UnixMilli()) / 1000.0, nil
}

// nativeRead returns one line of input without its terminator, or nil at
// end of input and on read failures.
func nativeRead(in *Interpreter, _ []Value) (Value, error) {
	line, err := in.readLine()
	if err != nil {
		return nil, nil
	}
	return line, nil
}

func nativePrint(in *Interpreter, args []Value) (Value, error) {
	fmt.Fprint(in.stdout, Stringify(args[0]))
	return nil, nil
}

func nativePrintLine(in *Interpreter, args []Value) (Value, error) {
	fmt.Fprintln(in.stdout, Stringify(args[0]))
	return nil, nil
}
