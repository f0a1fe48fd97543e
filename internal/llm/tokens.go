// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// tokenCounter memoizes the tiktoken encoding: constructing it involves
// loading a BPE rank table, which is wasted work to repeat on every
// call.
type tokenCounter struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

var sharedTokenCounter = &tokenCounter{}

func (c *tokenCounter) encoding() (*tiktoken.Tiktoken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enc != nil {
		return c.enc, nil
	}
	enc, err := tiktoken.GetEncoding(defaultEncoding)
	if err != nil {
		return nil, err
	}
	c.enc = enc
	return enc, nil
}

// CountTokens estimates the token count of text using a cl100k_base
// encoding. Every provider in this module is treated as
// tiktoken-compatible for budgeting purposes: the exact vendor
// tokenizer differs slightly, but the count only needs to be close
// enough to keep requests under max_input_tokens, per spec.md §4.3
// point 2.
func CountTokens(text string) int {
	enc, err := sharedTokenCounter.encoding()
	if err != nil {
		// Fall back to a conservative characters/4 estimate rather than
		// failing the call outright when the rank table can't load.
		return len(text)/4 + 1
	}
	return len(enc.Encode(text, nil, nil))
}

// TruncateContextToFit trims context from the tail so that
// tokens(instruction+context) <= maxInputTokens, preserving as much of
// the beginning of context as fits. Returns the possibly-shortened
// context and whether truncation occurred.
func TruncateContextToFit(instruction, context string, maxInputTokens int) (string, bool) {
	if maxInputTokens <= 0 {
		return context, false
	}
	instructionTokens := CountTokens(instruction)
	budget := maxInputTokens - instructionTokens
	if budget <= 0 {
		return "", true
	}
	if CountTokens(context) <= budget {
		return context, false
	}

	// Binary-search-free approximation: trim by paragraphs from the
	// tail first (cheap, preserves sentence structure), then fall back
	// to a hard rune cut if a single paragraph still overflows.
	paragraphs := strings.Split(context, "\n\n")
	for len(paragraphs) > 1 {
		candidate := strings.Join(paragraphs, "\n\n")
		if CountTokens(candidate) <= budget {
			return candidate, true
		}
		paragraphs = paragraphs[:len(paragraphs)-1]
	}

	remaining := paragraphs[0]
	runes := []rune(remaining)
	// cl100k_base averages under 4 characters per token for English
	// prose; scale the rune budget generously and let the loop below
	// close the gap exactly.
	approxRunes := budget * 4
	if approxRunes < len(runes) {
		runes = runes[:approxRunes]
	}
	for len(runes) > 0 && CountTokens(string(runes)) > budget {
		cut := len(runes) / 10
		if cut < 1 {
			cut = 1
		}
		runes = runes[:len(runes)-cut]
	}
	return string(runes), true
}
