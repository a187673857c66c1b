package mcpserver

// TemplateFormatContract describes how notesmith templates are laid out and
// rendered, for LLM consumers that write or fill templates.
const TemplateFormatContract = `# Notesmith Template Format

A template is a Markdown file in the vault's templates folder. It may start
with up to two frontmatter blocks followed by the body.

## Layout

` + "```" + `markdown
---
title: Meeting                          # template frontmatter, never copied
newNoteTitle: <%- date.now() %> <%- topic %>
folder: meetings
---
--
tags: meeting                           # output frontmatter, copied into the note
--
# <%- topic %>

Notes
` + "```" + `

## Rules

1. A block opens and closes with a line that is exactly ` + "`---`" + ` or exactly
   ` + "`--`" + `. Both lines of a pair use the same delimiter.
2. The first block is the **template frontmatter**. It configures the template:
   - ` + "`newNoteTitle`" + ` is rendered to produce the title of new notes.
   - ` + "`folder`" + ` is the default folder for new notes.
3. The second block, after optional blank lines, is the **output frontmatter**.
   It is rendered and becomes the new note's frontmatter. ` + "`--`" + ` blocks are
   rewritten to ` + "`---`" + ` in the created note.
4. A block only counts as frontmatter when every non-blank line looks like
   ` + "`key: value`" + `, ` + "`key:`" + `, or a list item. A heading or a bare ` + "`---`" + `
   rule followed by prose is body text.
5. The **inline title** is the first non-blank body line when it is a 1-6 ` + "`#`" + `
   heading. A heading further down does not count.
6. Blocks after the second are body text.

## Title resolution for new notes

1. The explicit title argument.
2. The rendered ` + "`newNoteTitle`" + `.
3. The rendered output frontmatter ` + "`title`" + `.
4. The rendered inline title.

## Expressions

| Tag | Effect |
|-----|--------|
| ` + "`<%= expr %>`" + ` | output, HTML-escaped |
| ` + "`<%- expr %>`" + ` | output, raw |
| ` + "`<%# text %>`" + ` | comment |
| ` + "`<% if expr %>...<% else %>...<% end %>`" + ` | conditional |
| ` + "`<% each list as item %>...<% end %>`" + ` | loop |
| ` + "`<%%`" + ` | literal ` + "`<%`" + ` |

Closing with ` + "`-%>`" + ` drops the following newline. Expressions are dotted
paths into the render data, string and number literals, ` + "`a || b`" + `
fallbacks, ` + "`!`" + ` negation and helpers: ` + "`date.now(layout)`" + `,
` + "`date.today()`" + `, ` + "`date.time()`" + `, ` + "`upper`" + `, ` + "`lower`" + `, ` + "`trim`" + `.
Date layouts use Go reference time (` + "`2006-01-02`" + `).

The template frontmatter is available as ` + "`template`" + `, e.g.
` + "`<%- template.folder %>`" + `. Referencing an undefined variable is an error
that reports the template line number.
`
