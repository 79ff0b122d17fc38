package notion

var (
	BuildPageRequest = buildPageRequest
	RichText         = richText
)
