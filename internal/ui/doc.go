// Package ui implements the terminal monitor using bubbletea's Elm architecture.
//
// The monitor watches a running server over HTTP and renders three views:
//  1. [QueueView] : the generation queue with per-job progress
//  2. [LibraryView] : the song catalog
//  3. [HelpView] : key bindings
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// A [tickMsg] loop drives polling; fetches run as commands so the interface never
// blocks on the network. The only write operation is canceling a job.
//
// Keyboard navigation uses vim-style bindings (j/k, tab, c, r, q) with contextual
// help displayed via charmbracelet/bubbles/help.
package ui
