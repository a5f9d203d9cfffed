// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration in ~/.digest/config.toml with
//     DIGEST_* environment overrides
//   - PromptStore: user-editable system prompts in ~/.digest/prompts/
package file
