// Package logx wraps zerolog behind a small structured-logging facade.
//
// Loggers handed out by the Service stay live across config reloads: Apply()
// swaps sinks and levels without invalidating existing Logger values.
package logx
