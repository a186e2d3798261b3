package mcpserver

// MarkerSyntax describes the Markdown extensions the renderer understands.
// LLM consumers read it before writing notes that reference other notes.
const MarkerSyntax = `# Draftsmith Marker Syntax

Notes are Markdown with a few additions. Notes are addressed by numeric id.

## Wikilinks

- ` + "`[[42]]`" + ` renders a link to note 42 labelled with its title
  (or ` + "`# 42`" + ` when the note has no title).
- ` + "`[[42|see here]]`" + ` uses the given label instead.
- A link to a note that does not exist renders as an inline error.

## Transclusion

- ` + "`![[42]]`" + ` on its own line embeds the rendered body of note 42.
  The whole line is replaced by the embedded note.
- Extra segments (` + "`![[42|caption]]`" + `) are accepted and ignored.
- Embedding nests up to 10 levels. Deeper markers stay literal, so a note
  that embeds itself terminates.
- Markers inside inline code or fenced code blocks are left untouched.

## Math

- Inline: ` + "`$...$`" + ` or ` + "`\\(...\\)`" + `.
- Display: ` + "`$$...$$`" + ` or ` + "`\\[...\\]`" + `.
- Math is passed through untouched and typeset in the browser by KaTeX.

## Media

- ` + "`![](clip.mp4)`" + ` (also webm, ogg, ogv, mov, mkv, avi, wmv, flv) renders as an HTML5
  video player instead of an image.

## Admonitions

` + "```" + `markdown
> [!WARNING] Optional title
> Body of the callout.
` + "```" + `

Kinds: note, tip, important, warning, caution, info, danger.

The indented form takes any kind and an optional quoted title. An empty
title (` + "`\"\"`" + `) drops the title line.

` + "```" + `markdown
!!! note "Optional title"
    Body indented by four spaces.
` + "```" + `

## Table of contents

A paragraph holding only ` + "`[TOC]`" + ` becomes a nested list of links to
every heading in the note.

## Front matter

A leading YAML block fenced by ` + "`---`" + ` lines is not rendered. Its
` + "`title`" + ` is used when the note itself has none.
`
