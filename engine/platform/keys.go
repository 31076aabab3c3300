package platform

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/prism/engine/core"
)

var namedKeys = map[glfw.Key]core.KeyCode{
	glfw.KeySpace:        core.KEY_SPACE,
	glfw.KeyApostrophe:   core.KEY_APOSTROPHE,
	glfw.KeyComma:        core.KEY_COMMA,
	glfw.KeyMinus:        core.KEY_MINUS,
	glfw.KeyPeriod:       core.KEY_PERIOD,
	glfw.KeySlash:        core.KEY_SLASH,
	glfw.KeySemicolon:    core.KEY_SEMICOLON,
	glfw.KeyEqual:        core.KEY_PLUS,
	glfw.KeyLeftBracket:  core.KEY_LBRACKET,
	glfw.KeyBackslash:    core.KEY_BACKSLASH,
	glfw.KeyRightBracket: core.KEY_RBRACKET,
	glfw.KeyGraveAccent:  core.KEY_GRAVE,

	glfw.KeyEscape:      core.KEY_ESCAPE,
	glfw.KeyEnter:       core.KEY_ENTER,
	glfw.KeyTab:         core.KEY_TAB,
	glfw.KeyBackspace:   core.KEY_BACKSPACE,
	glfw.KeyInsert:      core.KEY_INSERT,
	glfw.KeyDelete:      core.KEY_DELETE,
	glfw.KeyRight:       core.KEY_RIGHT,
	glfw.KeyLeft:        core.KEY_LEFT,
	glfw.KeyDown:        core.KEY_DOWN,
	glfw.KeyUp:          core.KEY_UP,
	glfw.KeyPageUp:      core.KEY_PRIOR,
	glfw.KeyPageDown:    core.KEY_NEXT,
	glfw.KeyHome:        core.KEY_HOME,
	glfw.KeyEnd:         core.KEY_END,
	glfw.KeyCapsLock:    core.KEY_CAPITAL,
	glfw.KeyScrollLock:  core.KEY_SCROLL,
	glfw.KeyNumLock:     core.KEY_NUMLOCK,
	glfw.KeyPrintScreen: core.KEY_SNAPSHOT,
	glfw.KeyPause:       core.KEY_PAUSE,

	glfw.KeyKPDecimal:  core.KEY_DECIMAL,
	glfw.KeyKPDivide:   core.KEY_DIVIDE,
	glfw.KeyKPMultiply: core.KEY_MULTIPLY,
	glfw.KeyKPSubtract: core.KEY_SUBTRACT,
	glfw.KeyKPAdd:      core.KEY_ADD,
	glfw.KeyKPEnter:    core.KEY_ENTER,
	glfw.KeyKPEqual:    core.KEY_NUMPAD_EQUAL,

	// Side specific modifiers report the generic code, as a window key message does.
	glfw.KeyLeftShift:    core.KEY_SHIFT,
	glfw.KeyRightShift:   core.KEY_SHIFT,
	glfw.KeyLeftControl:  core.KEY_CONTROL,
	glfw.KeyRightControl: core.KEY_CONTROL,
	glfw.KeyLeftAlt:      core.KEY_LMENU,
	glfw.KeyRightAlt:     core.KEY_RMENU,
	glfw.KeyLeftSuper:    core.KEY_LWIN,
	glfw.KeyRightSuper:   core.KEY_RWIN,
	glfw.KeyMenu:         core.KEY_APPS,
}

/**
 * @brief Maps a GLFW key to the engine key code. Letters and digits share
 * their ASCII values on both sides; function and keypad keys are contiguous
 * runs. Keys without an engine code report false.
 */
func TranslateKey(key glfw.Key) (core.KeyCode, bool) {
	switch {
	case key >= glfw.KeyA && key <= glfw.KeyZ:
		return core.KEY_A + core.KeyCode(key-glfw.KeyA), true
	case key >= glfw.Key0 && key <= glfw.Key9:
		return core.KEY_0 + core.KeyCode(key-glfw.Key0), true
	case key >= glfw.KeyF1 && key <= glfw.KeyF24:
		return core.KEY_F1 + core.KeyCode(key-glfw.KeyF1), true
	case key >= glfw.KeyKP0 && key <= glfw.KeyKP9:
		return core.KEY_NUMPAD0 + core.KeyCode(key-glfw.KeyKP0), true
	}
	code, ok := namedKeys[key]
	return code, ok
}
