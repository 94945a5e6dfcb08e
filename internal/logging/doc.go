// Package logging sets up structured JSON logging for codeindex with a
// size-rotated log file under ~/.codeindex/logs and an optional stderr copy,
// and reads those files back for the logs command.
package logging
