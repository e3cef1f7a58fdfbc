// Package generator produces new question bank entries through an
// OpenAI-compatible chat completion API. Generated questions go through the
// same insert-time validation and dedup as imported ones.
package generator
