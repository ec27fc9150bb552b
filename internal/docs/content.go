package docs

var topics = []Topic{
	{
		Name:    "quickstart",
		Title:   "Quick Start",
		Summary: "Inspecting and maintaining .ipes models with ipes",
		Content: topicQuickstart,
	},
	{
		Name:    "format",
		Title:   "File Format",
		Summary: "Lines, values, arrays, blocks and the trailer",
		Content: topicFormat,
	},
	{
		Name:    "attachments",
		Title:   "Attachments",
		Summary: "Embedded and external files, hashes and relative paths",
		Content: topicAttachments,
	},
	{
		Name:    "versions",
		Title:   "File Versions",
		Summary: "How older and newer files are read",
		Content: topicVersions,
	},
	{
		Name:    "config",
		Title:   "Configuration Reference",
		Summary: "The .ipes.yaml file and IPES_* environment variables",
		Content: topicConfig,
	},
	{
		Name:    "backup",
		Title:   "Backups",
		Summary: "Automatic backups and restoring by document id",
		Content: topicBackup,
	},
}

const topicQuickstart = `QUICK START

  ipes init                      write a .ipes.yaml with the defaults
  ipes info model.ipes           summary: version, solver, components
  ipes attachments model.ipes    table of attached files
  ipes doctor *.ipes             check many models at once
  ipes pack model.ipes -o out.ipes
                                 single file with every attachment embedded

Models are saved gzip-compressed. ipes reads gzip, zlib and plain text
files, and always writes gzip.

Commands that change a model (relocate, embed, extern, gc) back up the
previous version first. See 'ipes docs backup'.
`

const topicFormat = `FILE FORMAT

A model is a sequence of text lines. Blank lines are ignored.

Scalars
  key value
  Numbers use a dot as decimal separator. Booleans are true or false.
  An empty string is written as NIX_NIX_NIX.

Arrays
  key[] 1 2 3            numbers, each followed by a space
  key[] null             an absent array
  key[] /a/NIX_NIX_NIX/c string array; every element starts with /
  key[][] 2 3 v v v v v v
                         two rows and three columns, row by row

Blocks
  <Tag>
  ...
  <\Tag>
  A block may be preceded by a header naming its kind and position:
    e (3)
    <ElementLK>

Component blocks appear in this order:
  verbindungLK, verbindungCONTROL, verbindungTHERM   connections
  e, eTH, c, sp                                      elements

Script sources are stored in <scripterCode>, <scripterImports> and
<scripterDeclarations> blocks with newlines escaped as \n.

The file ends with the global settings (solver, view), FileVersion,
UniqueFileId, the signal list and a line of = signs.
`

const topicAttachments = `ATTACHMENTS

Components can reference files: loss curves, characteristic data, script
sources. Each file is stored once in the GeckoFileManager block and
identified by a hash; components refer to the hash.

Embedded    the bytes are inside the model (fileContents[])
External    only the path is stored; the file is read when needed

Both the absolute path and a path relative to the model are saved. When a
model is opened from a new location, the relative path is tried first, so
a model moved together with its data keeps working.

A missing external file is reported and that attachment is skipped; the
rest of the model loads normally.

  ipes embed model.ipes HASH              copy the file into the model
  ipes extern model.ipes HASH out/x.dat   write it out and reference it
  ipes extract model.ipes HASH -o x.dat   write the content to a file
  ipes gc model.ipes                      drop attachments nothing uses
`

const topicVersions = `FILE VERSIONS

Every model records the FileVersion of the release that wrote it.

Older than 'oldest-supported' (default 160)
  The file is read with defaults for settings it does not contain, and a
  warning is shown. Saving writes the current version.

Newer than 'release' (default 201)
  The file is read as far as possible and a warning is shown. Settings
  this release does not know may be lost when saving.

Settings missing from a file fall back to defaults, for example a missing
dt_pre takes the value of dt.

Values that are present but unreadable are reported as warnings and
replaced by defaults. With 'strict: true' they stop the import instead.
`

const topicConfig = `CONFIGURATION REFERENCE

ipes looks for .ipes.yaml in the current directory and its parents.

  release: 201              FileVersion written on save
  oldest-supported: 160     older files load with a warning
  compression: -1           gzip level, -2 to 9 (-1 default, 0 none)
  default-storage: embedded storage for newly attached files
  strict: false             unreadable values stop the import
  backup:
    dir: .ipes-backup       relative to the config file
    keep: 5                 backups kept per document
  log:
    level: warn             debug, info, warn or error

Environment variables override the file. A .env file next to
.ipes.yaml is read as well.

  IPES_RELEASE  IPES_COMPRESSION  IPES_BACKUP_DIR  IPES_LOG_LEVEL
  IPES_STORAGE
`

const topicBackup = `BACKUPS

  ipes backup model.ipes          store a copy now
  ipes restore ID [-o out.ipes]   restore the newest copy of document ID
  ipes restore --list ID          list the copies of document ID

Backups are named by creation time and indexed by the document id stored
in each model (UniqueFileId), so a model can be found again after it was
renamed or moved. Only the newest 'backup.keep' copies of each document
are kept.

Models written by old releases have no document id. Their copies are
indexed by path instead:

  ipes restore old.ipes           restore the newest copy of that file
`
