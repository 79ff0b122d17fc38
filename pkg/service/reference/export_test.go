package reference

var Parse = parse
