// Package asmparser is Clink's fuzzy, regex-driven assembly parser (§4.3.1),
// ported line-for-line from libclink/src/parse_asm.c. On each line it tries
// four regex families in order and stops at the first match; the branch
// mnemonic table mixes ARM, AVR, MIPS, PowerPC, RISC-V, and x86 without
// disambiguation, a deliberate over-matching trade-off the original leaves
// undocumented (see DESIGN.md's open-question note).
package asmparser

import (
	"bufio"
	"io"
	"regexp"

	"github.com/smattr/clink/internal/clinkerr"
	"github.com/smattr/clink/internal/symbol"
)

var (
	defineRE = regexp.MustCompile(`^[ \t]*#[ \t]*define[ \t]+([A-Za-z_][A-Za-z0-9_]*)`)
	includeRE = regexp.MustCompile(`^[ \t]*#[ \t]*include[ \t]*(<[^>]*>|"[^"]*")`)
	functionRE = regexp.MustCompile(`^[ \t]*([A-Za-z._][A-Za-z0-9._$@]*)[ \t]*:`)

	// callMnemonics mirrors parse_asm.c's CALL alternation: ARM, AVR, MIPS,
	// PowerPC, RISC-V, and x86 branch/call mnemonics in one flat list.
	callMnemonics = `b|beq|bne|bcs|bhs|bcc|blo|bmi|bpl|bvs|bvc|bhi|bls|bge|blt|bgt|ble|bal|bl` +
		`|bleq|blne|blcs|blhs|blcc|bllo|blmi|blpl|blvs|blvc|blhi|blls|blge|bllt` +
		`|blgt|blle|blal|blx|blxeq|blxne|blxcs|blxhs|blxcc|blxlo|blxmi|blxpl|blxvs` +
		`|blxvc|blxhi|blxls|blxge|blxlt|blxgt|blxle|blxal` +
		`|brcc|brcs|breq|brge|brhc|brhs|brid|brie|brlo|brlt|brmi|brme|brpl|brsh` +
		`|brtc|brts|brvc|brvs|jmp` +
		`|j|jal` +
		`|b|ba|bl|bla|blt|bdnz` +
		`|jal` +
		`|call|callq|ja|jae|jb|jbe|jc|jcxz|je|jecxz|jg|jge|jl|jle|jmp|jna|jnae|jnb` +
		`|jnbe|jnc|jne|jng|jnge|jnl|jnle|jno|jnp|jns|jnz|jo|jp|jpe|jpo|js|jz`

	callRE = regexp.MustCompile(`^[ \t]*(` + callMnemonics + `)[ \t]+([A-Za-z._][A-Za-z0-9._$@]*)`)
)

// Parse scans r line-by-line, invoking emit for each recognised symbol. path
// is attached to every emitted Symbol as-is; the caller is responsible for
// having already made it absolute.
func Parse(path string, r io.Reader, emit func(symbol.Symbol) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var parent string
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()

		if m := defineRE.FindStringSubmatchIndex(line); m != nil {
			name := line[m[2]:m[3]]
			if err := emit(symbol.Symbol{
				Category: symbol.Definition,
				Name:     name,
				Path:     path,
				Line:     lineno,
				Col:      m[2] + 1,
				Parent:   parent,
			}); err != nil {
				return err
			}
			continue
		}

		if m := includeRE.FindStringSubmatchIndex(line); m != nil {
			// strip the surrounding <...> or "..." delimiters
			start, end := m[2]+1, m[3]-1
			if start > end {
				start = end
			}
			if err := emit(symbol.Symbol{
				Category: symbol.Include,
				Name:     line[start:end],
				Path:     path,
				Line:     lineno,
				Col:      m[2] + 1,
				Parent:   parent,
			}); err != nil {
				return err
			}
			continue
		}

		if m := functionRE.FindStringSubmatchIndex(line); m != nil {
			name := line[m[2]:m[3]]
			if err := emit(symbol.Symbol{
				Category: symbol.Definition,
				Name:     name,
				Path:     path,
				Line:     lineno,
				Col:      m[2] + 1,
				Parent:   parent,
			}); err != nil {
				return err
			}
			parent = name
			continue
		}

		if m := callRE.FindStringSubmatchIndex(line); m != nil {
			name := line[m[4]:m[5]]
			if err := emit(symbol.Symbol{
				Category: symbol.FunctionCall,
				Name:     name,
				Path:     path,
				Line:     lineno,
				Col:      m[4] + 1,
				Parent:   parent,
			}); err != nil {
				return err
			}
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return clinkerr.Wrap(clinkerr.IOError, err)
	}
	return nil
}
