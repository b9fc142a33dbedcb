package bytecode

// Stats contains statistics about compiled bytecode.
type Stats struct {
	// InstructionCount is the total number of bytecode instructions,
	// operands included.
	InstructionCount int

	// ConstantCount is the number of constants across all code blocks.
	ConstantCount int

	// BlockCount is the number of declared blocks.
	BlockCount int

	// MacroCount is the number of declared macros.
	MacroCount int

	// SourceBytes is the size of the template source in bytes.
	SourceBytes int
}
