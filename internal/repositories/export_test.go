package repositories

var Translate = translate
