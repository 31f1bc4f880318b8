package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/df07/go-phase-functions/pkg/phase"
)

// PBRTStatement represents a parsed PBRT statement
type PBRTStatement struct {
	Type       string               // Statement type (MakeNamedMedium, Shape, etc.)
	Subtype    string               // First quoted string (medium name, shape type, ...)
	Parameters map[string]PBRTParam // Named parameters
}

// PBRTParam represents a parameter with type and value(s)
type PBRTParam struct {
	Type   string   // Parameter type (float, string, rgb, ...)
	Values []string // Parameter values as strings
}

// NamedMedium is a participating medium declared with MakeNamedMedium
type NamedMedium struct {
	Name  string
	Type  string // homogeneous, uniformgrid, rgbgrid, cloud, ...
	Phase *phase.HenyeyGreenstein
}

// pbrtDefaultAsymmetry is PBRT's default "g" for media, which differs from
// the configuration-file default
const pbrtDefaultAsymmetry = 0.0

// ParsePBRTMedia reads every MakeNamedMedium statement from PBRT content.
// Other statements are tokenized and skipped.
func ParsePBRTMedia(reader io.Reader) ([]NamedMedium, error) {
	var media []NamedMedium
	var statementLines []string

	flush := func() error {
		if len(statementLines) == 0 {
			return nil
		}
		fullStatement := strings.Join(statementLines, " ")
		statementLines = nil

		stmt, err := parseStatement(fullStatement)
		if err != nil {
			return fmt.Errorf("error parsing statement '%s': %v", fullStatement, err)
		}
		if stmt.Type != "MakeNamedMedium" {
			return nil
		}
		m, err := mediumFromStatement(stmt)
		if err != nil {
			return err
		}
		media = append(media, m)
		return nil
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if isStatementStart(line) {
			if err := flush(); err != nil {
				return nil, err
			}
			statementLines = []string{line}
		} else {
			if len(statementLines) == 0 {
				return nil, fmt.Errorf("unexpected continuation line: %s", line)
			}
			statementLines = append(statementLines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %v", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return media, nil
}

// LoadPBRTMedia loads the media declared in a PBRT scene file
func LoadPBRTMedia(filename string) ([]NamedMedium, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, err
	}
	if format, err := DetectFormat(filename); err != nil || format != FormatPBRT {
		return nil, fmt.Errorf("%s: expected a .pbrt file: %w", filename, ErrUnsupportedFormat)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PBRT file: %v", err)
	}
	defer file.Close()

	return ParsePBRTMedia(file)
}

func mediumFromStatement(stmt *PBRTStatement) (NamedMedium, error) {
	if stmt.Subtype == "" {
		return NamedMedium{}, fmt.Errorf("MakeNamedMedium: missing medium name")
	}

	mediumType, _ := stmt.GetStringParam("type")

	g := pbrtDefaultAsymmetry
	if _, exists := stmt.Parameters["g"]; exists {
		v, ok := stmt.GetFloatParam("g")
		if !ok {
			return NamedMedium{}, fmt.Errorf("medium %q: invalid \"float g\" value %v", stmt.Subtype, stmt.Parameters["g"].Values)
		}
		g = v
	}

	hg, err := phase.NewHenyeyGreenstein(g)
	if err != nil {
		return NamedMedium{}, fmt.Errorf("medium %q: %w", stmt.Subtype, err)
	}
	return NamedMedium{Name: stmt.Subtype, Type: mediumType, Phase: hg}, nil
}

// isStatementStart reports whether a line begins a new directive. PBRT
// directives are capitalized identifiers; continuation lines start with a
// quoted parameter, a bracket or a number.
func isStatementStart(line string) bool {
	r, _ := utf8.DecodeRuneInString(line)
	return unicode.IsUpper(r)
}

// tokenizePBRT splits a statement into words, quoted strings and bracketed arrays
func tokenizePBRT(line string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	inBrackets := false

	for _, char := range line {
		switch char {
		case '"':
			current.WriteRune(char)
			if inBrackets {
				continue
			}
			if inQuotes {
				// End of quoted string
				tokens = append(tokens, current.String())
				current.Reset()
			}
			inQuotes = !inQuotes
		case '[':
			if !inQuotes && current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			current.WriteRune(char)
			if !inQuotes {
				inBrackets = true
			}
		case ']':
			current.WriteRune(char)
			if !inQuotes && inBrackets {
				tokens = append(tokens, current.String())
				current.Reset()
				inBrackets = false
			}
		case ' ', '\t':
			if inQuotes || inBrackets {
				current.WriteRune(char)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	// Add final token if any
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// parseStatement parses: Type "subtype" "paramtype name" value ...
func parseStatement(line string) (*PBRTStatement, error) {
	parts := tokenizePBRT(line)
	if len(parts) == 0 {
		return nil, fmt.Errorf("invalid statement format")
	}

	stmt := &PBRTStatement{
		Type:       parts[0],
		Parameters: make(map[string]PBRTParam),
	}

	// Extract subtype (quoted string after type)
	if len(parts) > 1 && isQuoted(parts[1]) {
		stmt.Subtype = strings.Trim(parts[1], "\"")
		parts = parts[2:]
	} else {
		parts = parts[1:]
	}

	i := 0
	for i < len(parts) {
		if !isQuoted(parts[i]) {
			i++
			continue
		}

		// Find parameter name and type
		paramParts := strings.Fields(strings.Trim(parts[i], "\""))
		i++
		if len(paramParts) != 2 {
			continue
		}

		// Parse parameter value(s)
		var values []string
		if i < len(parts) {
			if strings.HasPrefix(parts[i], "[") && strings.HasSuffix(parts[i], "]") {
				// Array value, already tokenized as a single token
				for _, v := range strings.Fields(strings.Trim(parts[i], "[] ")) {
					values = append(values, strings.Trim(v, "\""))
				}
			} else {
				values = []string{strings.Trim(parts[i], "\"")}
			}
			i++
		}

		stmt.Parameters[paramParts[1]] = PBRTParam{
			Type:   paramParts[0],
			Values: values,
		}
	}

	return stmt, nil
}

func isQuoted(token string) bool {
	return len(token) >= 2 && strings.HasPrefix(token, "\"") && strings.HasSuffix(token, "\"")
}

// GetFloatParam returns the first value of a float parameter
func (stmt *PBRTStatement) GetFloatParam(name string) (float64, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) == 0 {
		return 0, false
	}
	val, err := strconv.ParseFloat(param.Values[0], 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// GetStringParam returns the first value of a string parameter
func (stmt *PBRTStatement) GetStringParam(name string) (string, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) == 0 {
		return "", false
	}
	return param.Values[0], true
}
