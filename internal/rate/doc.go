// Package rate implements fixed-window failure counters in Redis: INCR, plus
// EXPIRE on the first hit of a window.
package rate
