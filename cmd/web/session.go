package main

// Session keys. The player id is the only long-lived entry; the rest carry
// one redirect's worth of text for the no-script fallback.
const (
	playerIDSessionKey     = "playerID"
	flashSessionKey        = "flash"
	verdictSessionKey      = "verdict"
	examinedTextSessionKey = "examinedText"
	examinedClueSessionKey = "examinedClue"
)
