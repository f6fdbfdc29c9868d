// Package view projects a pipeline snapshot into what the terminal UI displays.
//
// A Model groups jobs by stage, lists variables and keeps one JobHandle per job in a Registry.
// Handles carry the only state owned by the view: whether the job is active. Activating a job
// also activates, transitively, every job it needs that is currently registered.
package view
