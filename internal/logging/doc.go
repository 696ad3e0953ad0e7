// Package logging provides structured logging for chessbook.
//
// Entries are JSON lines produced by log/slog. With a log directory
// configured they go to chessbook.log, rotated by size through lumberjack;
// otherwise they go to stderr.
//
// # Context Propagation
//
// Child loggers carry persistent attributes:
//
//	log := logger.WithPDF(pdfID).WithGame(gameID)
//	log.Info("recognized diagram", "confidence", 0.93)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"recognized diagram","pdf_id":"...","game_id":"...","confidence":0.93}
//
// The reducer in package core never logs. The runtime logs each effect it
// executes and every collaborator failure; stale responses are logged at
// DEBUG only.
package logging
