package scope

import (
	stderrors "errors"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/errors"
)

// Instruction is a structured change request for one component
type Instruction struct {
	Target  component.ID     `yaml:"target" json:"target"`
	Scope   component.Scope  `yaml:"scope" json:"scope"`
	Action  component.Action `yaml:"action,omitempty" json:"action,omitempty"`
	Tests   []string         `yaml:"tests,omitempty" json:"tests,omitempty"`
	HotSwap bool             `yaml:"hot_swap,omitempty" json:"hot_swap,omitempty"`
}

// Normalize lower-cases scope and action and defaults a missing action to
// ActionOther.
func (i Instruction) Normalize() Instruction {
	i.Target = component.ID(strings.TrimSpace(string(i.Target)))
	i.Scope = component.Scope(strings.ToLower(strings.TrimSpace(string(i.Scope))))
	i.Action = component.Action(strings.ToLower(strings.TrimSpace(string(i.Action))))
	if i.Action == "" {
		i.Action = component.ActionOther
	}
	return i
}

// Validate checks that the target is present and the scope and action are
// known. The target does not have to exist in any catalog.
func (i Instruction) Validate() error {
	if i.Target == "" {
		return errors.NewInvalidInstruction("target is required")
	}
	if err := i.Scope.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInstruction, "invalid build instruction", err)
	}
	if err := i.Action.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInstruction, "invalid build instruction", err)
	}
	return nil
}

// LoadInstruction reads a YAML instruction file
func LoadInstruction(path string) (Instruction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return Instruction{}, errors.NewFileNotFoundError(path)
		}
		return Instruction{}, errors.Wrap(errors.ErrCodeFileReadFailed, "read instruction file", err)
	}

	var instr Instruction
	if err := yaml.Unmarshal(data, &instr); err != nil {
		return Instruction{}, errors.NewFileUnmarshalError(path, "YAML", err)
	}
	instr = instr.Normalize()
	if err := instr.Validate(); err != nil {
		return Instruction{}, err
	}
	return instr, nil
}
