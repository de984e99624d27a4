package tui

// action is what a key chord resolves to. Resolution depends on whether the
// text input owns focus: plain letters type into a focused field, and ctrl+v
// is left alone there so the terminal's native paste wins.
type action int

const (
	actionNone action = iota
	actionQuit
	actionStart
	actionCancel
	actionPasteFocus
	actionFocusInput
	actionClearInput
	actionBlurInput
	actionViewDownloader
	actionViewCompressor
	actionToggleView
	actionClearJob
	actionHistory
	actionReveal
	actionHelp
)

// resolveKey maps one key chord to an action. Chords that would collide with
// typing resolve to actionNone while the input is focused.
func resolveKey(key string, inputFocused bool) action {
	switch key {
	case "ctrl+c":
		return actionQuit
	case "enter":
		return actionStart
	case "esc":
		if inputFocused {
			return actionBlurInput
		}
		return actionNone
	case "ctrl+v":
		if inputFocused {
			return actionNone
		}
		return actionPasteFocus
	case "ctrl+l":
		return actionFocusInput
	case "ctrl+k":
		return actionClearInput
	case "tab":
		return actionToggleView
	}

	if inputFocused {
		return actionNone
	}
	switch key {
	case "q":
		return actionQuit
	case "1":
		return actionViewDownloader
	case "2":
		return actionViewCompressor
	case "x":
		return actionCancel
	case "c":
		return actionClearJob
	case "h":
		return actionHistory
	case "o":
		return actionReveal
	case "?":
		return actionHelp
	}
	return actionNone
}
