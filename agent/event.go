// Package agent implements the tool-calling reasoning loop: the model
// decides which tools to call, the loop executes them, and every step is
// streamed to an observer in causal order.
package agent

import "encoding/json"

// StepType tags one observable step of a loop run.
type StepType string

const (
	StepThinking   StepType = "thinking"
	StepToolCall   StepType = "tool_call"
	StepToolResult StepType = "tool_result"
	StepAnswer     StepType = "answer"
	StepError      StepType = "error"
	StepDone       StepType = "done"
)

// Step is one event of the run. Content is a string for thinking, answer
// and error steps, a ToolCallContent or ToolResultContent for tool steps,
// and "" for done.
type Step struct {
	Type    StepType `json:"type"`
	Content any      `json:"content"`
}

type ToolCallContent struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

type ToolResultContent struct {
	Name   string `json:"name"`
	Result string `json:"result"` // full text, never truncated
}

// Sink receives steps as they happen. Emit is called from the loop's
// goroutine; a slow sink slows the loop, which is the intended backpressure.
type Sink interface {
	Emit(Step)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Step)

func (f SinkFunc) Emit(s Step) { f(s) }

// ChannelSink forwards steps into a channel, for transports that consume
// the run from another goroutine. The producer side (the loop caller) is
// responsible for closing the channel after Run returns.
type ChannelSink struct {
	C chan Step
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{C: make(chan Step, buffer)}
}

func (s *ChannelSink) Emit(step Step) { s.C <- step }

func (s *ChannelSink) Close() { close(s.C) }
