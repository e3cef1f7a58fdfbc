// Package render wraps the external quizrender binary that turns a question
// batch into a finished video file.
package render
